package core

import (
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/go-crypt/x/blake2b"
)

// Well-known summary flags that drive query construction and static evidence.
const (
	FlagIschemicFeatures = "ischemic_features"
	FlagDMFollowup       = "dm_followup"
	FlagLabsA1CNeeded    = "labs_a1c_needed"
)

const (
	// MaxCodeLength bounds a single diagnosis, procedure or label entry.
	MaxCodeLength = 64
	// MaxNarrativeLength bounds the HPI and chief complaint fields.
	MaxNarrativeLength = 20000
)

// ROSFindings holds positive and negative review-of-systems findings for one system.
type ROSFindings struct {
	Positive []string `json:"positive,omitempty"`
	Negative []string `json:"negative,omitempty"`
}

// Codes carries the optional code lists attached to a summary.
type Codes struct {
	Diagnosis []string `json:"diagnosis_codes,omitempty"`
	Procedure []string `json:"procedure_codes,omitempty"`
	Labels    []string `json:"labels,omitempty"`
}

// Summary is the typed ingress record produced by the summarization collaborator.
//
// Only HPI, ROS, CC, Flags and Codes affect retrieval. PMH, Meds and
// PatientLabel are display fields and never change the fingerprint.
type Summary struct {
	HPI   string                 `json:"hpi"`
	ROS   map[string]ROSFindings `json:"ros,omitempty"`
	CC    string                 `json:"cc"`
	Flags map[string]bool        `json:"flags,omitempty"`
	Codes Codes                  `json:"codes"`

	PMH          []string `json:"pmh,omitempty"`
	Meds         []string `json:"meds,omitempty"`
	PatientLabel string   `json:"patient_label,omitempty"`
}

// Normalize trims free-text fields and drops blank code entries in place.
func (s *Summary) Normalize() {
	s.HPI = strings.TrimSpace(s.HPI)
	s.CC = strings.TrimSpace(s.CC)
	s.Codes.Diagnosis = compact(s.Codes.Diagnosis)
	s.Codes.Procedure = compact(s.Codes.Procedure)
	s.Codes.Labels = compact(s.Codes.Labels)
}

// Flag reports whether the named flag is set.
func (s *Summary) Flag(name string) bool {
	return s.Flags[name]
}

// ActiveFlags returns the names of all true flags in sorted order.
func (s *Summary) ActiveFlags() []string {
	out := make([]string, 0, len(s.Flags))
	for name, on := range s.Flags {
		if on {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}

// fingerprintInput is the retrieval-relevant projection of a Summary.
// Field order is fixed so the JSON encoding is canonical.
type fingerprintInput struct {
	HPI   string                 `json:"hpi"`
	ROS   map[string]ROSFindings `json:"ros"`
	CC    string                 `json:"cc"`
	Flags []string               `json:"flags"`
	Codes Codes                  `json:"codes"`
}

// Fingerprint returns a deterministic hex digest over the fields that affect
// retrieval. encoding/json sorts map keys, so ROS ordering does not matter.
func (s *Summary) Fingerprint() string {
	in := fingerprintInput{
		HPI:   s.HPI,
		ROS:   s.ROS,
		CC:    s.CC,
		Flags: s.ActiveFlags(),
		Codes: Codes{
			Diagnosis: nilIfEmpty(s.Codes.Diagnosis),
			Procedure: nilIfEmpty(s.Codes.Procedure),
			Labels:    nilIfEmpty(s.Codes.Labels),
		},
	}
	if len(in.ROS) == 0 {
		in.ROS = nil
	}
	payload, err := json.Marshal(in)
	if err != nil {
		// Only string/bool/slice/map fields, Marshal cannot fail here.
		panic(err)
	}
	h, _ := blake2b.New(32, nil)
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func compact(in []string) []string {
	if len(in) == 0 {
		return in
	}
	out := in[:0]
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func nilIfEmpty(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	return in
}
