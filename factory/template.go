/*
Package factory provides JSON to Go template conversion and demo data.

PURPOSE:
  Converts JSON template definitions into schedule.Template values. This
  lets schedulers define shift patterns without code changes: the admin UI
  (or a file) posts JSON, and the factory builds the hierarchy through the
  same mutation engine the services use, so every id rule and validation
  applies to imported templates too.

JSON SCHEMA:
  {
    "id": "weekday",
    "name": "Weekday",
    "description": "Standard weekday coverage",
    "groups": [
      {
        "name": "Convention Centre",
        "color": "blue",
        "sub_groups": [
          {
            "name": "AM Base",
            "shifts": [
              {"role": "TM2", "start_time": "06:30", "end_time": "14:00",
               "break_minutes": 30, "remuneration_level": "GOLD"},
              {"role": "TM1", "start_time": "07:00", "duration_hours": 8,
               "remuneration_level": "BRONZE"}
            ]
          }
        ]
      }
    ]
  }

KEY FEATURES:
  - Validates every node (department names, times, levels)
  - end_time may be replaced by duration_hours
  - Numbers groups, sub-groups and shifts in document order

USAGE:
  tpl, err := factory.ParseTemplate(jsonString)

  // Built-in preset used when a roster names an unknown template
  tpl := factory.DefaultTemplate()

SEE ALSO:
  - schedule/hierarchy.go: the mutation engine used to build the tree
  - api/scenarios.go: demo data loaders
*/
package factory

import (
	"encoding/json"
	"fmt"

	"github.com/VinayakKuanr-UNSW/shiftopia-creator-sub000/schedule"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// TemplateJSON is the JSON representation of a template.
type TemplateJSON struct {
	ID          string      `json:"id,omitempty"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Groups      []GroupJSON `json:"groups"`
}

type GroupJSON struct {
	Name      string         `json:"name"`
	Color     string         `json:"color,omitempty"`
	SubGroups []SubGroupJSON `json:"sub_groups"`
}

type SubGroupJSON struct {
	Name   string      `json:"name"`
	Shifts []ShiftJSON `json:"shifts"`
}

// ShiftJSON needs either end_time or duration_hours.
type ShiftJSON struct {
	Role              string  `json:"role"`
	StartTime         string  `json:"start_time"`
	EndTime           string  `json:"end_time,omitempty"`
	DurationHours     float64 `json:"duration_hours,omitempty"`
	BreakMinutes      int     `json:"break_minutes,omitempty"`
	RemunerationLevel string  `json:"remuneration_level"`
	Notes             string  `json:"notes,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseTemplate parses a JSON string into a Template.
func ParseTemplate(jsonStr string) (*schedule.Template, error) {
	var tj TemplateJSON
	if err := json.Unmarshal([]byte(jsonStr), &tj); err != nil {
		return nil, fmt.Errorf("failed to parse template JSON: %w", err)
	}
	return FromJSON(tj)
}

// FromJSON builds the hierarchy node by node through schedule.Hierarchy.
func FromJSON(tj TemplateJSON) (*schedule.Template, error) {
	if tj.Name == "" {
		return nil, &schedule.ValidationError{Field: "name", Message: "is required"}
	}

	t := &schedule.Template{
		ID:          tj.ID,
		Name:        tj.Name,
		Description: tj.Description,
		Groups:      []schedule.Group{},
	}
	h := schedule.Edit(&t.Groups, schedule.SequentialShiftIDs)

	for _, gj := range tj.Groups {
		g, err := h.AddGroup(schedule.NewGroupInput{Name: gj.Name, Color: schedule.Color(gj.Color)})
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", gj.Name, err)
		}
		for _, sj := range gj.SubGroups {
			sg, err := h.AddSubGroup(g.ID, schedule.NewSubGroupInput{Name: sj.Name})
			if err != nil {
				return nil, fmt.Errorf("group %q: %w", gj.Name, err)
			}
			for i, shj := range sj.Shifts {
				_, err := h.AddShift(g.ID, sg.ID, schedule.NewShiftInput{
					Role:              shj.Role,
					StartTime:         shj.StartTime,
					EndTime:           shj.EndTime,
					DurationHours:     shj.DurationHours,
					BreakMinutes:      shj.BreakMinutes,
					RemunerationLevel: schedule.RemunerationLevel(shj.RemunerationLevel),
					Notes:             shj.Notes,
				})
				if err != nil {
					return nil, fmt.Errorf("group %q, sub-group %q, shift %d: %w", gj.Name, sj.Name, i+1, err)
				}
			}
		}
	}
	return t, nil
}

// ToJSON converts a Template back to its JSON representation.
func ToJSON(t *schedule.Template) TemplateJSON {
	tj := TemplateJSON{ID: t.ID, Name: t.Name, Description: t.Description}
	for _, g := range t.Groups {
		gj := GroupJSON{Name: g.Name, Color: string(g.Color)}
		for _, sg := range g.SubGroups {
			sj := SubGroupJSON{Name: sg.Name}
			for _, sh := range sg.Shifts {
				sj.Shifts = append(sj.Shifts, ShiftJSON{
					Role:              sh.Role,
					StartTime:         sh.StartTime,
					EndTime:           sh.EndTime,
					BreakMinutes:      sh.BreakMinutes,
					RemunerationLevel: string(sh.RemunerationLevel),
					Notes:             sh.Notes,
				})
			}
			gj.SubGroups = append(gj.SubGroups, sj)
		}
		tj.Groups = append(tj.Groups, gj)
	}
	return tj
}

// =============================================================================
// PRESETS
// =============================================================================

// DefaultTemplateID identifies the built-in template.
const DefaultTemplateID = "default"

const defaultTemplateJSON = `{
  "id": "default",
  "name": "Standard Day",
  "description": "Baseline coverage for a single event day",
  "groups": [
    {
      "name": "Convention Centre",
      "color": "blue",
      "sub_groups": [
        {
          "name": "AM Base",
          "shifts": [
            {"role": "TM2", "start_time": "06:30", "end_time": "14:00", "break_minutes": 30, "remuneration_level": "GOLD"},
            {"role": "TM1", "start_time": "07:00", "duration_hours": 8, "break_minutes": 30, "remuneration_level": "BRONZE"}
          ]
        },
        {
          "name": "PM Base",
          "shifts": [
            {"role": "TM2", "start_time": "14:00", "end_time": "22:00", "break_minutes": 30, "remuneration_level": "GOLD"},
            {"role": "TM1", "start_time": "15:00", "end_time": "23:00", "break_minutes": 30, "remuneration_level": "BRONZE"}
          ]
        }
      ]
    },
    {
      "name": "Exhibition Centre",
      "color": "green",
      "sub_groups": [
        {
          "name": "Bump In",
          "shifts": [
            {"role": "TM3", "start_time": "05:00", "end_time": "11:00", "break_minutes": 15, "remuneration_level": "SILVER"},
            {"role": "TM3", "start_time": "05:00", "end_time": "11:00", "break_minutes": 15, "remuneration_level": "SILVER"}
          ]
        }
      ]
    },
    {
      "name": "Theatre",
      "color": "purple",
      "sub_groups": [
        {
          "name": "Front of House",
          "shifts": [
            {"role": "TM1", "start_time": "17:30", "end_time": "23:30", "break_minutes": 15, "remuneration_level": "BRONZE"}
          ]
        }
      ]
    },
    {
      "name": "Food & Beverage",
      "color": "orange",
      "sub_groups": [
        {
          "name": "Kitchen",
          "shifts": [
            {"role": "TM2", "start_time": "10:00", "end_time": "18:00", "break_minutes": 30, "remuneration_level": "SILVER"}
          ]
        }
      ]
    }
  ]
}`

// DefaultTemplate returns the built-in template. It panics only if the
// embedded definition is broken, which the package tests guard against.
func DefaultTemplate() *schedule.Template {
	t, err := ParseTemplate(defaultTemplateJSON)
	if err != nil {
		panic(fmt.Sprintf("factory: default template: %v", err))
	}
	return t
}

// DemoEmployees returns a staff directory that fills most of DefaultTemplate.
func DemoEmployees() []schedule.Employee {
	return []schedule.Employee{
		{ID: "emp-001", Name: "Amelia Chen", Department: "Convention Centre", Role: "TM2", Tier: schedule.LevelGold, Level: 5},
		{ID: "emp-002", Name: "Liam O'Brien", Department: "Convention Centre", Role: "TM2", Tier: schedule.LevelGold, Level: 3},
		{ID: "emp-003", Name: "Priya Nair", Department: "Convention Centre", Role: "TM1", Tier: schedule.LevelBronze, Level: 2},
		{ID: "emp-004", Name: "Noah Williams", Department: "Convention Centre", Role: "TM1", Tier: schedule.LevelBronze, Level: 1},
		{ID: "emp-005", Name: "Sofia Rossi", Department: "Exhibition Centre", Role: "TM3", Tier: schedule.LevelSilver, Level: 4},
		{ID: "emp-006", Name: "Jack Thompson", Department: "Exhibition Centre", Role: "TM3", Tier: schedule.LevelSilver, Level: 2},
		{ID: "emp-007", Name: "Mia Tanaka", Department: "Theatre", Role: "TM1", Tier: schedule.LevelBronze, Level: 3},
		{ID: "emp-008", Name: "Ethan Kaur", Department: "Food & Beverage", Role: "TM2", Tier: schedule.LevelSilver, Level: 4},
		{ID: "emp-009", Name: "Grace Martin", Department: "Event Services", Role: "TM1", Tier: schedule.LevelBronze, Level: 1},
	}
}
