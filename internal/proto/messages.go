// Package proto describes the paykeeper.RecordService gRPC contract.
//
// Every message is a protobuf well-known type (structpb, wrapperspb, emptypb),
// so the service needs no generated message code: requests that carry several
// values are structpb.Struct objects keyed by the Field* names below, and
// records travel as structpb.Struct values.
package proto

import (
	"encoding/base64"
	"fmt"

	"github.com/dmitrijs2005/paykeeper/internal/records"
	"google.golang.org/protobuf/types/known/structpb"
)

// Request/response field names.
const (
	FieldEntity       = "entity"
	FieldID           = "id"
	FieldRecord       = "record"
	FieldBaseVersion  = "base_version"
	FieldQuery        = "query"
	FieldParams       = "params"
	FieldUsername     = "username"
	FieldSalt         = "salt"
	FieldVerifier     = "verifier"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldKey          = "key"
	FieldURL          = "url"
)

// PingOK is the status string returned by a healthy server.
const PingOK = "OK"

// NewMessage builds a request/response Struct from plain Go values.
// []byte values are base64 encoded; read them back with BytesField.
func NewMessage(fields map[string]any) (*structpb.Struct, error) {
	return structpb.NewStruct(fields)
}

func StringField(s *structpb.Struct, name string) string {
	return s.GetFields()[name].GetStringValue()
}

func IntField(s *structpb.Struct, name string) int64 {
	return int64(s.GetFields()[name].GetNumberValue())
}

func BytesField(s *structpb.Struct, name string) ([]byte, error) {
	v := StringField(s, name)
	if v == "" {
		return nil, nil
	}
	b, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	return b, nil
}

func StructField(s *structpb.Struct, name string) *structpb.Struct {
	return s.GetFields()[name].GetStructValue()
}

// StringMapField reads a Struct of string values, e.g. query params.
func StringMapField(s *structpb.Struct, name string) map[string]string {
	out := map[string]string{}
	for k, v := range StructField(s, name).GetFields() {
		switch x := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			out[k] = x.StringValue
		case *structpb.Value_NumberValue:
			out[k] = fmt.Sprint(x.NumberValue)
		}
	}
	return out
}

// RecordToStruct converts a record to its wire form.
func RecordToStruct(r records.Record) (*structpb.Struct, error) {
	norm, err := records.Normalize(r)
	if err != nil {
		return nil, err
	}
	return structpb.NewStruct(norm)
}

// StructToRecord converts a wire record back to a Record.
func StructToRecord(s *structpb.Struct) records.Record {
	if s == nil {
		return records.Record{}
	}
	return records.Record(s.AsMap())
}

func RecordsToList(in []records.Record) (*structpb.ListValue, error) {
	out := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(in))}
	for _, r := range in {
		s, err := RecordToStruct(r)
		if err != nil {
			return nil, err
		}
		out.Values = append(out.Values, structpb.NewStructValue(s))
	}
	return out, nil
}

func ListToRecords(l *structpb.ListValue) []records.Record {
	out := make([]records.Record, 0, len(l.GetValues()))
	for _, v := range l.GetValues() {
		if s := v.GetStructValue(); s != nil {
			out = append(out, StructToRecord(s))
		}
	}
	return out
}
