// Package spineloader is the Spine Loader (spec.md §4.E): a replace-all
// transform from the WDS spine JSON snapshot into the three spine tables.
//
// Grounded on warehouse/spine.go's truncate-and-replace contract and on
// the teacher's reb/ (rebalance) preference for "read the whole new
// target list, then swap it in atomically" over incremental diffing.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package spineloader

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"

	"github.com/statcan/wds-pipeline/warehouse"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// cubeEntry mirrors one element of the WDS "list all cubes" payload. Field
// names follow the upstream camelCase convention; SubjectCode/SurveyCode
// arrive as arrays since one cube can belong to several subjects/surveys.
type cubeEntry struct {
	ProductID     int64    `json:"productId"`
	CansimID      string   `json:"cansimId"`
	CubeTitleEn   string   `json:"cubeTitleEn"`
	CubeTitleFr   string   `json:"cubeTitleFr"`
	CubeStartDate string   `json:"cubeStartDate"`
	CubeEndDate   string   `json:"cubeEndDate"`
	ReleaseTime   string   `json:"releaseTime"`
	ArchiveStatus string   `json:"archiveStatus"`
	FrequencyCode int      `json:"frequencyCode"`
	IssueDate     string   `json:"issueDate"`
	SubjectCode   []string `json:"subjectCode"`
	SurveyCode    []string `json:"surveyCode"`
}

// Decode parses the raw spine JSON into the three projected row sets
// the Spine Loader writes in one transaction.
func Decode(payload []byte) ([]warehouse.Cube, []warehouse.CubeSubject, []warehouse.CubeSurvey, error) {
	var entries []cubeEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, nil, nil, errors.Wrap(err, "decoding spine snapshot")
	}

	cubes := make([]warehouse.Cube, 0, len(entries))
	var subjects []warehouse.CubeSubject
	var surveys []warehouse.CubeSurvey

	for _, e := range entries {
		cubes = append(cubes, warehouse.Cube{
			ProductID:     e.ProductID,
			CansimID:      e.CansimID,
			TitleEn:       e.CubeTitleEn,
			TitleFr:       e.CubeTitleFr,
			StartDate:     e.CubeStartDate,
			EndDate:       e.CubeEndDate,
			ReleaseDate:   parseTimeOrZero(e.ReleaseTime),
			ArchivedFlag:  e.ArchiveStatus == "2" || e.ArchiveStatus == "ARCHIVED",
			FrequencyCode: e.FrequencyCode,
			IssueDate:     parseTimeOrZero(e.IssueDate),
		})
		for _, sc := range e.SubjectCode {
			subjects = append(subjects, warehouse.CubeSubject{ProductID: e.ProductID, SubjectCode: sc})
		}
		for _, sv := range e.SurveyCode {
			surveys = append(surveys, warehouse.CubeSurvey{ProductID: e.ProductID, SurveyCode: sv})
		}
	}
	return cubes, subjects, surveys, nil
}

// Load decodes payload and replaces the spine tables in one transaction
// (spec.md §4.E: "TRUNCATE each target table, bulk insert the new rows").
func Load(store *warehouse.SpineStore, payload []byte) (int, error) {
	cubes, subjects, surveys, err := Decode(payload)
	if err != nil {
		return 0, err
	}
	if err := store.Replace(cubes, subjects, surveys); err != nil {
		return 0, errors.Wrap(err, "replacing spine tables")
	}
	return len(cubes), nil
}

func parseTimeOrZero(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
