package storage

import (
	"errors"
	"reflect"
	"testing"

	"digitaldna/internal/model"
)

func TestSequenceCodecRoundTrip(t *testing.T) {
	in := model.SequenceRecord{
		VersionedRecord: CurrentVersion(),
		ID:              "s1",
		Lineage:         2,
		Generation:      10,
		Fitness:         1.5,
		Values:          []int{0, 1, 2, 3},
		MutationRates:   map[string]float64{"point": 0.002, "inversion": 0.0001},
	}
	data, err := EncodeSequence(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodeSequence(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch\nin=%+v\nout=%+v", in, out)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	stale := model.VersionedRecord{SchemaVersion: CurrentSchemaVersion + 1, CodecVersion: CurrentCodecVersion}

	data, err := EncodeRun(model.RunRecord{VersionedRecord: stale, ID: "r"})
	if err != nil {
		t.Fatalf("encode run: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}

	data, err = EncodeLineage([]model.LineageRecord{
		{VersionedRecord: CurrentVersion()},
		{VersionedRecord: stale},
	})
	if err != nil {
		t.Fatalf("encode lineage: %v", err)
	}
	if _, err := DecodeLineage(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeRejectsMalformedPayload(t *testing.T) {
	if _, err := DecodeSequence([]byte("{")); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := DecodeFitnessHistory([]byte("[1,")); err == nil {
		t.Fatal("expected decode error")
	}
}
