package events

import (
	"strconv"
	"strings"

	"github.com/roach88/eventc/internal/compiler"
	"github.com/roach88/eventc/internal/ir"
	"github.com/roach88/eventc/internal/schema"
)

// Level code layout.
const (
	LevelCodeLength   = 24
	LevelCodeMaxValue = 40
	// DefaultLevelCode is used when the stored code is empty.
	DefaultLevelCode = "1,1,1,1,2,2,2,2,3,3,3,3,4,4,4,4,10,0,0,0,0,0,0,0"
)

const (
	storageVariables = "variables"
	storageSRAM      = "sram"
)

func storageField() schema.FieldSpec {
	return schema.FieldSpec{
		Key:     "storage_type",
		Label:   "Storage Type",
		Type:    schema.TypeSelect,
		Default: storageVariables,
		Options: []string{storageVariables, storageSRAM},
	}
}

func saveLevelCode() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_SAVE_LEVEL_CODE",
		Name:   "Save Level Code",
		Groups: []string{"MetaTile8Plugin"},
		Fields: []schema.FieldSpec{storageField()},
		Compile: func(c *compiler.Context) error {
			if c.Input.String("storage_type") == storageSRAM {
				c.Helpers.CallNative("vm_save_level_code_sram")
			} else {
				c.Helpers.CallNative("vm_save_level_code")
			}
			return nil
		},
	}
}

func loadLevelCode() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:     "EVENT_LOAD_LEVEL_CODE",
		Name:   "Load Level Code",
		Groups: []string{"TilemapEditor"},
		Fields: []schema.FieldSpec{
			storageField(),
			{
				Key:        "variable",
				Label:      "Success Variable",
				Type:       schema.TypeVariable,
				Default:    schema.LastVariable,
				Conditions: []schema.Condition{{Key: "storage_type", Eq: storageSRAM}},
			},
		},
		Compile: func(c *compiler.Context) error {
			h := c.Helpers
			if c.Input.String("storage_type") != storageSRAM {
				h.CallNative("vm_load_level_code")
				return nil
			}
			alias, err := h.VariableAlias(c.Input.String("variable"))
			if err != nil {
				return err
			}
			h.CallNative("vm_load_level_code_sram")
			h.SetVariable(alias, ir.RegResult)
			return nil
		},
	}
}

func loadLevelCodeIntoMemory() *compiler.EventDefinition {
	return &compiler.EventDefinition{
		ID:                     "EVENT_LOAD_LEVEL_CODE_INTO_MEMORY",
		Name:                   "Load Level Code Into Memory",
		Groups:                 []string{GroupMisc},
		WaitUntilAfterInitFade: true,
		Fields: []schema.FieldSpec{
			{Key: "levelCode", Label: "Level Code", Type: schema.TypeTextarea, Default: DefaultLevelCode},
			{Type: schema.TypeLabel, Label: "24 comma-separated numbers (0-40): 16 platforms, the player position, then 7 enemy values."},
		},
		Compile: func(c *compiler.Context) error {
			h := c.Helpers
			h.CallNative("vm_clear_level_code_string")
			for i, v := range ParseLevelCode(c.Input.String("levelCode")) {
				h.SetConst(ir.Arg(0), ir.IntOperand(int64(i)))
				h.SetConst(ir.Arg(1), ir.IntOperand(v))
				h.CallNative("vm_set_level_code_character")
			}
			return nil
		},
	}
}

// ParseLevelCode turns comma-separated text into exactly LevelCodeLength
// values in 0..LevelCodeMaxValue. Entries without a leading integer count as
// 0, missing entries are 0 and extra entries are dropped. Empty text means
// DefaultLevelCode.
func ParseLevelCode(text string) []int64 {
	if text == "" {
		text = DefaultLevelCode
	}
	out := make([]int64, LevelCodeLength)
	for i, part := range strings.Split(text, ",") {
		if i >= LevelCodeLength {
			break
		}
		out[i] = min(max(leadingInt(strings.TrimSpace(part)), 0), LevelCodeMaxValue)
	}
	return out
}

// leadingInt parses the optional sign and digits at the start of s.
func leadingInt(s string) int64 {
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		// Only overflow is possible here; the clamp handles the sign.
		if s[0] == '-' {
			return -1
		}
		return LevelCodeMaxValue
	}
	return n
}
