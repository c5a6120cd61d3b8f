// Package debug provides lightweight invariant assertions used across the
// ingestion pipeline. Panics here are meant to catch programmer errors
// (an invariant the spec promises, e.g. "at most one active row") early
// in development, not to replace normal error handling on the hot path.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package debug

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"

	"github.com/golang/glog"
)

func Assert(cond bool, a ...interface{}) {
	if !cond {
		panicf(a...)
	}
}

func Assertf(cond bool, f string, a ...interface{}) {
	if !cond {
		panicf(fmt.Sprintf(f, a...))
	}
}

func AssertNoErr(err error) {
	if err != nil {
		panicf(err)
	}
}

func panicf(a ...interface{}) {
	msg := "DEBUG PANIC: "
	if len(a) > 0 {
		msg += fmt.Sprint(a...)
	}
	buf := bytes.NewBufferString(msg)
	for i := 2; i < 9; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok || !strings.Contains(file, "wds-pipeline") {
			break
		}
		fmt.Fprintf(buf, " <- %s:%d", file, line)
	}
	glog.Error(buf.String())
	glog.Flush()
	panic(msg)
}
