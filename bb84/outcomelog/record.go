package outcomelog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qkdlab/bb84sim/bb84"
	"google.golang.org/protobuf/types/known/structpb"
)

// A Record is the logged form of one simulation outcome.
type Record struct {
	RunID     uuid.UUID
	Timestamp time.Time
	HasEve    bool
	Status    string

	// ErrorRate is nil when no sample could be taken.
	ErrorRate *float64

	KeyLengthInitial      int
	KeyLengthAfterSifting int
	KeyLengthFinal        int
	MatchingBases         int
	SampleSize            int

	// FinalKey is the key as a string of '0's and '1's, empty unless secure.
	FinalKey string
}

// NewRecord captures out under a fresh run id.
func NewRecord(out bb84.Outcome, hasEve bool, at time.Time) Record {
	rec := Record{
		RunID:                 uuid.New(),
		Timestamp:             at.UTC(),
		HasEve:                hasEve,
		Status:                out.Status.String(),
		KeyLengthInitial:      out.KeyLengthInitial,
		KeyLengthAfterSifting: out.KeyLengthAfterSifting,
		KeyLengthFinal:        out.KeyLengthFinal,
		MatchingBases:         out.MatchingBases,
		SampleSize:            out.SampleSize,
	}
	if v, ok := out.ErrorRate.Value(); ok {
		rec.ErrorRate = &v
	}
	if out.FinalKey != nil {
		rec.FinalKey = out.FinalKey.String()
	}
	return rec
}

// ToProto converts rec into an equivalent Struct proto.
func (rec Record) ToProto() (*structpb.Struct, error) {
	var qber interface{}
	if rec.ErrorRate != nil {
		qber = *rec.ErrorRate
	}
	return structpb.NewStruct(map[string]interface{}{
		"run_id":                   rec.RunID.String(),
		"timestamp":                rec.Timestamp.Format(time.RFC3339Nano),
		"has_eve":                  rec.HasEve,
		"status":                   rec.Status,
		"error_rate":               qber,
		"key_length_initial":       rec.KeyLengthInitial,
		"key_length_after_sifting": rec.KeyLengthAfterSifting,
		"key_length_final":         rec.KeyLengthFinal,
		"matching_bases":           rec.MatchingBases,
		"sample_size":              rec.SampleSize,
		"final_key":                rec.FinalKey,
	})
}

// RecordFromProto converts a Struct proto written by ToProto back to a Record.
func RecordFromProto(s *structpb.Struct) (Record, error) {
	f := s.GetFields()
	id, err := uuid.Parse(f["run_id"].GetStringValue())
	if err != nil {
		return Record{}, fmt.Errorf("parsing run id: %w", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, f["timestamp"].GetStringValue())
	if err != nil {
		return Record{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	rec := Record{
		RunID:                 id,
		Timestamp:             ts,
		HasEve:                f["has_eve"].GetBoolValue(),
		Status:                f["status"].GetStringValue(),
		KeyLengthInitial:      int(f["key_length_initial"].GetNumberValue()),
		KeyLengthAfterSifting: int(f["key_length_after_sifting"].GetNumberValue()),
		KeyLengthFinal:        int(f["key_length_final"].GetNumberValue()),
		MatchingBases:         int(f["matching_bases"].GetNumberValue()),
		SampleSize:            int(f["sample_size"].GetNumberValue()),
		FinalKey:              f["final_key"].GetStringValue(),
	}
	if v, ok := f["error_rate"].GetKind().(*structpb.Value_NumberValue); ok {
		qber := v.NumberValue
		rec.ErrorRate = &qber
	}
	return rec, nil
}
