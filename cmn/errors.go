package cmn

import "github.com/pkg/errors"

// StatsSink is the subset of statsx.Stats's counters that error
// constructors increment by family. Kept as an interface here rather than
// importing statsx's concrete type so cmn never depends on the metrics
// registry's collector wiring, only on the three counts it contributes to.
// SetStats wires the real instance in once at process startup
// (cmd/wds-pipeline/commands.NewRootContext); until then every increment
// is a no-op.
type StatsSink interface {
	IncTransientError(family string)
	IncCorruptError(family string)
	IncSchemaError(family string)
}

type noopStatsSink struct{}

func (noopStatsSink) IncTransientError(string) {}
func (noopStatsSink) IncCorruptError(string)   {}
func (noopStatsSink) IncSchemaError(string)    {}

var statsSink StatsSink = noopStatsSink{}

// SetStats installs the process-wide error-rate counter sink.
func SetStats(s StatsSink) { statsSink = s }

// Error kinds (spec.md §7). Each wraps an underlying cause via
// github.com/pkg/errors so call sites can recover it with errors.Cause
// while still getting a stack trace on first wrap.
type (
	// TransientError is a retryable fetch failure (network, 5xx). After
	// the WDS client's retry budget is exhausted it is surfaced but the
	// key is left pending rather than treated as fatal.
	TransientError struct{ cause error }

	// CorruptContentError is raised by the Verifier or by a post-download
	// hash mismatch. The caller must delete the file/row and re-arm
	// downloadPending.
	CorruptContentError struct {
		Hash     Hash
		Computed Hash
		cause    error
	}

	// SchemaError means a spine or metadata payload didn't parse the way
	// the WDS contract promises. The offending product is skipped; others
	// proceed.
	SchemaError struct {
		ProductID int64
		cause     error
	}

	// ConstraintViolation signals a unique-constraint collision on
	// artifact insert, i.e. "no change" rather than a real failure.
	ConstraintViolation struct{ cause error }

	// RegistryAnomaly covers degrade-gracefully conditions in the
	// dimension registry builder: parent-child cycles, contradictory
	// consensus modes. The build continues; this is logged, not raised
	// to the caller as fatal.
	RegistryAnomaly struct {
		DimensionHash Hash
		cause         error
	}

	// FatalError means the process cannot make progress: DB unreachable,
	// raw root unwritable. Surfaced and the command exits non-zero.
	FatalError struct{ cause error }
)

func (e *TransientError) Error() string { return "transient: " + e.cause.Error() }
func (e *TransientError) Unwrap() error { return e.cause }

// NewTransientError builds a TransientError and counts it against family's
// err_transient_n collector (spec.md §7, statsx.Stats.ErrTransientCount).
func NewTransientError(family string, cause error) error {
	statsSink.IncTransientError(family)
	return &TransientError{cause: errors.WithStack(cause)}
}

func (e *CorruptContentError) Error() string {
	return "corrupt content: expected " + string(e.Hash) + " got " + string(e.Computed)
}
func (e *CorruptContentError) Unwrap() error { return e.cause }

// NewCorruptContentError builds a CorruptContentError and counts it against
// family's err_corrupt_n collector.
func NewCorruptContentError(family string, expected, computed Hash) error {
	statsSink.IncCorruptError(family)
	return &CorruptContentError{Hash: expected, Computed: computed, cause: errors.New("hash mismatch")}
}

func (e *SchemaError) Error() string {
	return "schema error for productid " + Itoa(e.ProductID) + ": " + e.cause.Error()
}
func (e *SchemaError) Unwrap() error { return e.cause }

// NewSchemaError builds a SchemaError and counts it against family's
// err_schema_n collector.
func NewSchemaError(family string, productID int64, cause error) error {
	statsSink.IncSchemaError(family)
	return &SchemaError{ProductID: productID, cause: errors.WithStack(cause)}
}

func (e *ConstraintViolation) Error() string { return "constraint violation: " + e.cause.Error() }
func (e *ConstraintViolation) Unwrap() error { return e.cause }
func NewConstraintViolation(cause error) error {
	return &ConstraintViolation{cause: errors.WithStack(cause)}
}

func (e *RegistryAnomaly) Error() string {
	return "registry anomaly in dimension " + string(e.DimensionHash) + ": " + e.cause.Error()
}
func (e *RegistryAnomaly) Unwrap() error { return e.cause }
func NewRegistryAnomaly(dimensionHash Hash, cause error) error {
	return &RegistryAnomaly{DimensionHash: dimensionHash, cause: errors.WithStack(cause)}
}

func (e *FatalError) Error() string   { return "fatal: " + e.cause.Error() }
func (e *FatalError) Unwrap() error   { return e.cause }
func NewFatalError(cause error) error { return &FatalError{cause: errors.WithStack(cause)} }

// IsTransient reports whether err (or anything it wraps) is a TransientError.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}

// IsConstraintViolation reports whether err is the "no-op, already active"
// case the scheduler treats as success.
func IsConstraintViolation(err error) bool {
	var c *ConstraintViolation
	return errors.As(err, &c)
}
