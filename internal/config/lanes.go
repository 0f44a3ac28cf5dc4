package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"wip-tracker-service/internal/domain"

	"gopkg.in/yaml.v3"
)

// Names of the first and last lanes of the default layout, as the board
// labels them (intake and waiting-for-shipment).
const (
	LaneIntake   = "입고"
	LaneShipWait = "출하 대기"
)

// DefaultLanes is the floor layout, in flow order. Intake lots stack wider
// apart and slightly left of the lane anchor.
func DefaultLanes() []domain.Lane {
	return []domain.Lane{
		{Name: LaneIntake, X: -1815, Y: 28, StartOffset: 150, Spacing: 300, XShift: -30},
		{Name: "AFVI", X: -1279, Y: 50, StartOffset: 300, Spacing: 250},
		{Name: "FVI", X: -698, Y: 28, StartOffset: 100, Spacing: 250},
		{Name: "FQA", X: -23, Y: 30, StartOffset: 100, Spacing: 250},
		{Name: "PACKING", X: 671, Y: 32, StartOffset: 100, Spacing: 250},
		{Name: LaneShipWait, X: 1100, Y: 32, StartOffset: 100, Spacing: 250},
	}
}

type laneFile struct {
	Lanes []domain.Lane `yaml:"lanes"`
}

// LoadLanes reads a YAML lane layout:
//
//	lanes:
//	  - name: 입고
//	    x: -1815
//	    y: 28
//	    startOffset: 150
//	    spacing: 300
//	    xShift: -30
func LoadLanes(path string) ([]domain.Lane, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load lanes: read %q: %w", path, err)
	}

	var f laneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load lanes: parse %q: %w", path, err)
	}
	if len(f.Lanes) == 0 {
		return nil, fmt.Errorf("load lanes: %q defines no lanes", path)
	}

	for i := range f.Lanes {
		f.Lanes[i].Name = strings.TrimSpace(f.Lanes[i].Name)
	}
	return f.Lanes, nil
}

func ValidateLanes(lanes []domain.Lane) error {
	if len(lanes) == 0 {
		return errors.New("lane layout is empty")
	}

	seen := make(map[string]struct{}, len(lanes))
	var errs []error
	for i, l := range lanes {
		if l.Name == "" {
			errs = append(errs, fmt.Errorf("lane #%d: name is empty", i+1))
			continue
		}
		if _, dup := seen[l.Name]; dup {
			errs = append(errs, fmt.Errorf("lane %q: duplicate name", l.Name))
		}
		seen[l.Name] = struct{}{}
		if l.Spacing <= 0 {
			errs = append(errs, fmt.Errorf("lane %q: spacing must be positive, got %v", l.Name, l.Spacing))
		}
	}
	return errors.Join(errs...)
}
