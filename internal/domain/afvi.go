package domain

import (
	"fmt"
	"slices"
	"time"
)

// AfviStep describes one AFVI inspection sub-process and the machines that
// can run it. Next is empty for the last step.
type AfviStep struct {
	Name     string
	Machines []string
	Next     string
}

// AfviSteps is the AFVI inspection chain in order.
var AfviSteps = []AfviStep{
	{Name: "3D_BGA", Machines: []string{"3D_BGA_1", "3D_BGA_2"}, Next: "2D_BGA"},
	{Name: "2D_BGA", Machines: []string{"2D_BGA_1", "2D_BGA_2"}, Next: "IVS"},
	{Name: "IVS", Machines: []string{"IVS"}, Next: "Sorter"},
	{Name: "Sorter", Machines: []string{"Sorter_1", "Sorter_2"}},
}

func afviStep(name string) (AfviStep, bool) {
	for _, s := range AfviSteps {
		if s.Name == name {
			return s, true
		}
	}
	return AfviStep{}, false
}

// AfviRecord is a finished AFVI sub-process run.
type AfviRecord struct {
	SubProcess string     `json:"subProcess"`
	Machine    string     `json:"machine"`
	StartTime  *time.Time `json:"startTime"`
	EndTime    *time.Time `json:"endTime"`
}

// AfviStatus tracks a lot inside the AFVI lane: the sub-process and machine
// it is on now, and every sub-process it already finished.
type AfviStatus struct {
	CurrentSubProcess *string      `json:"currentSubProcess"`
	CurrentMachine    *string      `json:"currentMachine"`
	StartTime         *time.Time   `json:"startTime"`
	History           []AfviRecord `json:"history"`
}

// Validate checks that the current sub-process is known and the machine
// belongs to it. A status with no current sub-process is valid.
func (s *AfviStatus) Validate() error {
	if s == nil || s.CurrentSubProcess == nil || *s.CurrentSubProcess == "" {
		return nil
	}

	step, ok := afviStep(*s.CurrentSubProcess)
	if !ok {
		return fmt.Errorf("afvi sub-process %q: %w", *s.CurrentSubProcess, ErrInvalidLot)
	}
	if s.CurrentMachine != nil && *s.CurrentMachine != "" && !slices.Contains(step.Machines, *s.CurrentMachine) {
		return fmt.Errorf("afvi machine %q does not run %s: %w", *s.CurrentMachine, step.Name, ErrInvalidLot)
	}
	return nil
}

// Clone deep-copies the status. History is never nil in the copy so it
// encodes as [].
func (s *AfviStatus) Clone() *AfviStatus {
	if s == nil {
		return nil
	}
	c := &AfviStatus{
		CurrentSubProcess: cloneString(s.CurrentSubProcess),
		CurrentMachine:    cloneString(s.CurrentMachine),
		StartTime:         cloneTime(s.StartTime),
		History:           make([]AfviRecord, 0, len(s.History)),
	}
	for _, r := range s.History {
		r.StartTime = cloneTime(r.StartTime)
		r.EndTime = cloneTime(r.EndTime)
		c.History = append(c.History, r)
	}
	return c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
