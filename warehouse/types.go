// Package warehouse implements the spine, raw-dimension, processed, and
// canonical (dimension registry) tables from spec.md §3, stored over the
// same embedded buntdb handle as the Artifact Registry (store.DB.Raw()).
// Each table here is a thin typed view over buntdb's key/value space: the
// relational engine itself is out of scope per spec.md §1, and buntdb's
// transactions are what the spec's "truncate-and-replace" and
// "ON CONFLICT DO NOTHING" semantics are built out of.
/*
 * Copyright (c) 2024, Statistics Canada WDS Mirror Project.
 */
package warehouse

import "time"

// --- spine (spec.md §3, "Spine entities") ---

type Cube struct {
	ProductID     int64     `json:"product_id"`
	CansimID      string    `json:"cansim_id"`
	TitleEn       string    `json:"title_en"`
	TitleFr       string    `json:"title_fr"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	ReleaseDate   time.Time `json:"release_date"`
	ArchivedFlag  bool      `json:"archived_flag"`
	FrequencyCode int       `json:"frequency_code"`
	IssueDate     time.Time `json:"issue_date"`
}

type CubeSubject struct {
	ProductID   int64  `json:"product_id"`
	SubjectCode string `json:"subject_code"`
}

type CubeSurvey struct {
	ProductID  int64  `json:"product_id"`
	SurveyCode string `json:"survey_code"`
}

// --- raw (spec.md §3, "Raw dimension"/"Raw member") ---

type RawDimension struct {
	ProductID    int64  `json:"product_id"`
	DimensionPos int    `json:"dimension_position"`
	NameEn       string `json:"name_en"`
	NameFr       string `json:"name_fr"`
	HasUom       bool   `json:"has_uom"`
}

type RawMember struct {
	ProductID          int64   `json:"product_id"`
	DimensionPos       int     `json:"dimension_position"`
	MemberID           int64   `json:"member_id"`
	ParentMemberID     *int64  `json:"parent_member_id,omitempty"`
	ClassificationCode *string `json:"classification_code,omitempty"`
	NameEn             string  `json:"name_en"`
	NameFr             string  `json:"name_fr"`
	UomCode            *string `json:"uom_code,omitempty"`
	GeoLevel           *string `json:"geo_level,omitempty"`
	Vintage            *string `json:"vintage,omitempty"`
	Terminated         *bool   `json:"terminated,omitempty"`
}

// --- processed (spec.md §3/§4.G Stage 1-2) ---

type ProcessedMember struct {
	ProductID       int64   `json:"product_id"`
	DimensionPos    int     `json:"dimension_position"`
	MemberID        int64   `json:"member_id"`
	ParentMemberID  *int64  `json:"parent_member_id,omitempty"`
	UomCode         *string `json:"uom_code,omitempty"`
	NameEn          string  `json:"name_en"`
	NameFr          string  `json:"name_fr"`
	MemberLabelNorm string  `json:"member_label_norm"`
	MemberHash      string  `json:"member_hash"`
	DimensionHash   string  `json:"dimension_hash,omitempty"`
}

type ProcessedDimension struct {
	ProductID     int64  `json:"product_id"`
	DimensionPos  int    `json:"dimension_position"`
	DimensionHash string `json:"dimension_hash"`
	NameEn        string `json:"name_en"`
	NameFr        string `json:"name_fr"`
	HasUom        bool   `json:"has_uom"`
}

// --- canonical (spec.md §3/§4.G Stage 3-4) ---

type CanonicalDimension struct {
	DimensionHash string `json:"dimension_hash"`
	NameEn        string `json:"name_en"`
	NameFr        string `json:"name_fr"`
	UsageCount    int    `json:"usage_count"`
	HasUom        bool   `json:"has_uom"`
	IsTree        bool   `json:"is_tree"`
	IsHetero      bool   `json:"is_hetero"`
	HasTotal      bool   `json:"has_total"`
}

type CanonicalMember struct {
	DimensionHash  string  `json:"dimension_hash"`
	MemberID       int64   `json:"member_id"`
	NameEn         string  `json:"name_en"`
	NameFr         string  `json:"name_fr"`
	ParentMemberID *int64  `json:"parent_member_id,omitempty"`
	UomCode        *string `json:"uom_code,omitempty"`
	UsageCount     int     `json:"usage_count"`
	TreeLevel      *int    `json:"tree_level,omitempty"`
	BaseName       string  `json:"base_name"`
	// IsExclusive is left unfilled: spec.md §9 Open Question -- the
	// source marks it a placeholder with unspecified semantics.
	IsExclusive *bool `json:"is_exclusive,omitempty"`
}
