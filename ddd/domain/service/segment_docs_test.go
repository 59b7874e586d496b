package service

import (
	"testing"

	"videoindex-service/ddd/domain/vo"
)

func TestNormalizeWhitespace(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"a\tb\nc", "a b c"},
		{"", ""},
		{"   \t\n ", ""},
	}
	for _, c := range cases {
		if got := normalizeWhitespace(c.in); got != c.want {
			t.Errorf("normalizeWhitespace(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestEmbeddingItemVectorAliases(t *testing.T) {
	if got := (embeddingItem{Vector: []float32{1}}).vectorOf(); len(got) != 1 {
		t.Fatal("vector field should win")
	}
	if got := (embeddingItem{Embedding: []float32{1, 2}}).vectorOf(); len(got) != 2 {
		t.Fatal("embedding field should be accepted")
	}
	if got := (embeddingItem{Values: []float32{1, 2, 3}}).vectorOf(); len(got) != 3 {
		t.Fatal("values field should be accepted")
	}
	if got := (embeddingItem{
		Vector:    []float32{1},
		Embedding: []float32{1, 2},
	}).vectorOf(); len(got) != 1 {
		t.Fatal("vector takes precedence over embedding")
	}
}

func TestBuildSegmentDocumentsMergesLayerFields(t *testing.T) {
	artifact := &segmentsArtifact{
		TranscriptID: "tr-1",
		Language:     "en",
		Segments: []artifactSegment{
			{Segment: vo.Segment{StartMS: 0, EndMS: 1000, Text: "alice speaking"}},
			{Segment: vo.Segment{StartMS: 1000, EndMS: 2000, Text: "bob speaking"}},
			{Segment: vo.Segment{StartMS: 2000, EndMS: 3000, Text: "nobody tagged"}},
		},
	}
	layers := map[string]map[string]interface{}{
		"vid-1:0:1000":    {"speaker_id": "spk-a", "confidence": 0.9},
		"vid-1:1000:2000": {"speaker_id": "spk-b"},
	}

	docs := buildSegmentDocuments("vid-1", artifact, layers)
	if len(docs) != 3 {
		t.Fatalf("expected 3 docs, got %d", len(docs))
	}
	if docs[0].SpeakerID != "spk-a" || docs[1].SpeakerID != "spk-b" {
		t.Fatalf("speakers: %q %q", docs[0].SpeakerID, docs[1].SpeakerID)
	}
	if docs[0].Metadata["confidence"] != 0.9 {
		t.Fatalf("layer fields must land in doc metadata: %+v", docs[0].Metadata)
	}
	if docs[2].SpeakerID != "" || docs[2].Metadata != nil {
		t.Fatalf("unlayered segment should stay bare: %+v", docs[2])
	}
	if docs[1].ID != "vid-1:1000:2000" {
		t.Fatalf("derived id: %q", docs[1].ID)
	}
	if docs[1].SegmentIndex == nil || *docs[1].SegmentIndex != 1 {
		t.Fatal("segment index should reflect artifact order")
	}
}

func TestBuildSegmentDocumentsHonorsArtifactIds(t *testing.T) {
	artifact := &segmentsArtifact{Segments: []artifactSegment{
		{Segment: vo.Segment{StartMS: 0, EndMS: 1000, Text: "one"}, ID: "seg-a"},
		{Segment: vo.Segment{StartMS: 1000, EndMS: 2000, Text: "two"}, SegmentID: "seg-b"},
		{Segment: vo.Segment{StartMS: 2000, EndMS: 3000, Text: "three"}, ID: "seg-c", SegmentID: "ignored"},
		{Segment: vo.Segment{StartMS: 3000, EndMS: 4000, Text: "four"}},
	}}

	docs := buildSegmentDocuments("vid-1", artifact, nil)
	want := []string{"seg-a", "seg-b", "seg-c", "vid-1:3000:4000"}
	for i, w := range want {
		if docs[i].ID != w {
			t.Errorf("doc %d id %q, want %q", i, docs[i].ID, w)
		}
	}
}

func TestParseLayersArtifactShapes(t *testing.T) {
	layers, err := parseLayersArtifact([]byte(`{
		"by_segment_id": {"seg-a": {"speaker_id": "spk-1"}},
		"items": [{"segment_id": "seg-b", "speaker_id": "spk-2"}]
	}`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if layers["seg-a"]["speaker_id"] != "spk-1" || layers["seg-b"]["speaker_id"] != "spk-2" {
		t.Fatalf("both shapes should be accepted: %+v", layers)
	}

	if _, err := parseLayersArtifact([]byte(`{"items": [{"speaker_id": "spk-2"}]}`)); err == nil {
		t.Fatal("items entry without segment_id must be rejected")
	}
}

func TestBuildSegmentDocumentsKeepsIndexOfSkippedSegments(t *testing.T) {
	artifact := &segmentsArtifact{Segments: []artifactSegment{
		{Segment: vo.Segment{StartMS: 0, EndMS: 1000, Text: "  "}},
		{Segment: vo.Segment{StartMS: 1000, EndMS: 2000, Text: "kept"}},
	}}

	docs := buildSegmentDocuments("vid-1", artifact, nil)
	if len(docs) != 1 {
		t.Fatalf("expected 1 doc, got %d", len(docs))
	}
	if docs[0].SegmentIndex == nil || *docs[0].SegmentIndex != 1 {
		t.Fatal("index must be the artifact position, not the output position")
	}
}
