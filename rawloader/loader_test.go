package rawloader

import "testing"

func TestDecodeMetadataPayload(t *testing.T) {
	payload := []byte(`[
		{
			"dimension": [
				{
					"dimensionPositionId": 1,
					"dimensionNameEn": "Geography",
					"dimensionNameFr": "Geographie",
					"hasUom": false,
					"member": [
						{"memberId": 1, "parentMemberId": null, "memberNameEn": "Canada", "memberNameFr": "Canada"},
						{"memberId": 2, "parentMemberId": 1, "memberNameEn": "Ontario", "memberNameFr": "Ontario", "terminated": "false"}
					]
				}
			]
		}
	]`)

	dims, members, err := Decode(14100287, payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(dims) != 1 || dims[0].NameEn != "Geography" || dims[0].ProductID != 14100287 {
		t.Fatalf("dims = %+v", dims)
	}
	if len(members) != 2 {
		t.Fatalf("len(members) = %d, want 2", len(members))
	}
	if members[0].ParentMemberID != nil {
		t.Fatalf("Canada's parent should be nil, got %v", members[0].ParentMemberID)
	}
	if members[1].ParentMemberID == nil || *members[1].ParentMemberID != 1 {
		t.Fatalf("Ontario's parent should be 1, got %v", members[1].ParentMemberID)
	}
	if members[1].Terminated == nil || *members[1].Terminated {
		t.Fatalf("terminated \"false\" should decode to a non-nil false, got %v", members[1].Terminated)
	}
}

func TestDecodeMetadataRejectsEmptyResponse(t *testing.T) {
	if _, _, err := Decode(1, []byte(`[]`)); err == nil {
		t.Fatalf("expected an error for an empty metadata response")
	}
}

func TestDecodeMetadataRejectsMalformedJSON(t *testing.T) {
	if _, _, err := Decode(1, []byte(`not json`)); err == nil {
		t.Fatalf("expected an error for malformed JSON")
	}
}

func TestInspectUnknownFieldsDoesNotPanicOnNewKeys(t *testing.T) {
	payload := []byte(`[
		{
			"dimension": [
				{
					"dimensionPositionId": 1,
					"dimensionNameEn": "Geography",
					"footnoteId": "FN1",
					"member": [
						{"memberId": 1, "memberNameEn": "Canada", "vintageCode": "2021"}
					]
				}
			]
		}
	]`)
	// inspectUnknownFields only logs; it must not affect Decode's output or
	// error behavior when the payload carries fields this loader doesn't know.
	dims, members, err := Decode(1, payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(dims) != 1 || len(members) != 1 {
		t.Fatalf("dims=%v members=%v, want one of each despite the unrecognized fields", dims, members)
	}
}

func TestBoolPtr(t *testing.T) {
	if boolPtr(nil) != nil {
		t.Fatalf("boolPtr(nil) should be nil")
	}
	trueStr := "true"
	got := boolPtr(&trueStr)
	if got == nil || !*got {
		t.Fatalf("boolPtr(%q) = %v, want true", trueStr, got)
	}
	oneStr := "1"
	got = boolPtr(&oneStr)
	if got == nil || !*got {
		t.Fatalf("boolPtr(%q) = %v, want true", oneStr, got)
	}
	falseStr := "false"
	got = boolPtr(&falseStr)
	if got == nil || *got {
		t.Fatalf("boolPtr(%q) = %v, want false", falseStr, got)
	}
}
