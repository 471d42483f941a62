package identity

import (
	"fmt"
	"strconv"
	"strings"
)

// SyntheticIDPrefix marks identifiers the normalizer synthesized for source
// records that carried none. Synthetic IDs are never reused across distinct
// records of the same batch.
const SyntheticIDPrefix = "UNREG-"

// fieldKeys maps each semantic attribute to the accepted key spellings in
// precedence order. The first non-empty value wins. Source systems emit both
// camelCase and PascalCase for the same field, so both are listed; a single
// conditional chain per attribute would scatter the precedence rule.
var fieldKeys = map[string][]string{
	"patientId":     {"patientId", "PatientId"},
	"patientNumber": {"patientNo", "PatientNo", "patientNumber"},
	"givenName":     {"firstName", "FirstName"},
	"familyName":    {"lastName", "LastName"},
	"phone":         {"phone", "Phone", "phoneNumber"},
	"age":           {"age", "Age"},
	"gender":        {"gender", "Gender"},
	"address":       {"address", "Address"},
	"complaint":     {"complaint", "Complaint"},
	"status":        {"status", "Status"},
	"registeredBy":  {"registeredBy", "RegisteredBy"},
}

// Diagnostic records a data-quality event observed while normalizing a batch:
// a malformed element replaced with a placeholder, or a duplicate key rewrite.
type Diagnostic struct {
	Index   int    `json:"index"`
	Kind    string `json:"kind"` // "normalization" or "duplicate-key"
	Message string `json:"message"`
}

// IsSyntheticID reports whether id was synthesized by the normalizer rather
// than carried by the source record.
func IsSyntheticID(id string) bool {
	return strings.HasPrefix(id, SyntheticIDPrefix)
}

// resolve returns the first non-empty value among the accepted spellings for
// the given semantic field.
func resolve(raw map[string]interface{}, field string) string {
	for _, key := range fieldKeys[field] {
		if v, ok := raw[key]; ok {
			if s := stringValue(v); s != "" {
				return s
			}
		}
	}
	return ""
}

func stringValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", t))
	}
}

// NormalizePatient converts one raw source record into the canonical shape.
// ordinal is the record's position in the batch, used only to synthesize a
// placeholder identifier when the source carries none. Pure function of its
// inputs.
func NormalizePatient(raw map[string]interface{}, ordinal int) (*PatientRecord, error) {
	if raw == nil {
		return nil, &NormalizationError{Ordinal: ordinal, Reason: "record is null"}
	}

	rec := &PatientRecord{
		PatientID:     resolve(raw, "patientId"),
		PatientNumber: resolve(raw, "patientNumber"),
		GivenName:     resolve(raw, "givenName"),
		FamilyName:    resolve(raw, "familyName"),
		Phone:         resolve(raw, "phone"),
		Gender:        resolve(raw, "gender"),
		Address:       resolve(raw, "address"),
		Complaint:     resolve(raw, "complaint"),
		Status:        resolve(raw, "status"),
		RegisteredBy:  resolve(raw, "registeredBy"),
	}

	if ageStr := resolve(raw, "age"); ageStr != "" {
		age, err := strconv.Atoi(ageStr)
		if err != nil {
			return nil, &NormalizationError{Ordinal: ordinal, Reason: fmt.Sprintf("age %q is not a number", ageStr)}
		}
		rec.Age = age
	}

	if rec.GivenName == "" && rec.FamilyName == "" {
		return nil, &NormalizationError{Ordinal: ordinal, Reason: "no name field present"}
	}

	if rec.PatientID == "" {
		rec.PatientID = fmt.Sprintf("%s%d", SyntheticIDPrefix, ordinal)
	}
	if rec.Status == "" {
		rec.Status = StatusActive
	}

	rec.Key = rec.PatientNumber
	if rec.Key == "" {
		rec.Key = rec.PatientID
	}
	return rec, nil
}

// NormalizeBatch normalizes every element of a raw batch. A malformed element
// never aborts the batch: it is replaced by an error placeholder and recorded
// as a diagnostic. After normalization, colliding working keys are rewritten
// deterministically so the result is usable as a keyed collection with no
// silent overwrites.
func NormalizeBatch(raws []map[string]interface{}) ([]*PatientRecord, []Diagnostic) {
	records := make([]*PatientRecord, len(raws))
	var diags []Diagnostic

	for i, raw := range raws {
		rec, err := normalizeElement(raw, i)
		if err != nil {
			diags = append(diags, Diagnostic{Index: i, Kind: "normalization", Message: err.Error()})
			rec = errorPlaceholder(i)
		}
		records[i] = rec
	}

	diags = append(diags, suppressDuplicateKeys(records)...)
	return records, diags
}

// normalizeElement isolates a panic from a single element so one corrupt
// record cannot take down the batch.
func normalizeElement(raw map[string]interface{}, ordinal int) (rec *PatientRecord, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &NormalizationError{Ordinal: ordinal, Reason: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return NormalizePatient(raw, ordinal)
}

func errorPlaceholder(ordinal int) *PatientRecord {
	id := fmt.Sprintf("%s%d", SyntheticIDPrefix, ordinal)
	return &PatientRecord{
		PatientID: id,
		Key:       id,
		Status:    StatusError,
	}
}

// suppressDuplicateKeys rewrites the working key and the primary identifier
// of every record whose value was already claimed by an earlier record,
// appending the batch index. The first claimant keeps the original value, so
// the batch is usable as a keyed collection and persists with no silent
// overwrites.
func suppressDuplicateKeys(records []*PatientRecord) []Diagnostic {
	var diags []Diagnostic
	seenIDs := make(map[string]int, len(records))
	seenKeys := make(map[string]int, len(records))
	for i, rec := range records {
		if first, dup := seenIDs[rec.PatientID]; dup {
			rewritten := fmt.Sprintf("%s#%d", rec.PatientID, i)
			diags = append(diags, Diagnostic{
				Index: i,
				Kind:  "duplicate-key",
				Message: fmt.Sprintf("patientId %q already used by record %d; rewritten to %q",
					rec.PatientID, first, rewritten),
			})
			rec.PatientID = rewritten
		}
		seenIDs[rec.PatientID] = i

		if rec.Key == "" {
			rec.Key = strconv.Itoa(i)
		}
		if first, dup := seenKeys[rec.Key]; dup {
			rewritten := fmt.Sprintf("%s#%d", rec.Key, i)
			diags = append(diags, Diagnostic{
				Index: i,
				Kind:  "duplicate-key",
				Message: fmt.Sprintf("key %q already used by record %d; rewritten to %q",
					rec.Key, first, rewritten),
			})
			rec.Key = rewritten
		}
		seenKeys[rec.Key] = i
	}
	return diags
}
