package model

import (
	"reflect"
	"testing"
)

func TestFaculty_Normalize(t *testing.T) {
	tests := []struct {
		name            string
		faculty         Faculty
		expectedDays    NameList
		expectedPeriods NameList
		expectedWeight  float64
	}{
		{
			name:            "全部缺省",
			faculty:         Faculty{ID: 1, Name: "张老师"},
			expectedDays:    NameList{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			expectedPeriods: NameList{"Morning", "Afternoon"},
			expectedWeight:  1.0,
		},
		{
			name: "已有偏好保持不变",
			faculty: Faculty{
				ID:               2,
				PreferredDays:    NameList{"Monday"},
				PreferredPeriods: NameList{"Afternoon"},
				PreferenceWeight: 3.5,
			},
			expectedDays:    NameList{"Monday"},
			expectedPeriods: NameList{"Afternoon"},
			expectedWeight:  3.5,
		},
		{
			name:            "权重为零时取缺省值",
			faculty:         Faculty{ID: 3, PreferenceWeight: 0},
			expectedDays:    NameList{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
			expectedPeriods: NameList{"Morning", "Afternoon"},
			expectedWeight:  1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.faculty.Normalize()
			if !reflect.DeepEqual(tt.faculty.PreferredDays, tt.expectedDays) {
				t.Errorf("PreferredDays = %v, expected %v", tt.faculty.PreferredDays, tt.expectedDays)
			}
			if !reflect.DeepEqual(tt.faculty.PreferredPeriods, tt.expectedPeriods) {
				t.Errorf("PreferredPeriods = %v, expected %v", tt.faculty.PreferredPeriods, tt.expectedPeriods)
			}
			if tt.faculty.PreferenceWeight != tt.expectedWeight {
				t.Errorf("PreferenceWeight = %v, expected %v", tt.faculty.PreferenceWeight, tt.expectedWeight)
			}
		})
	}
}

func TestFaculty_ClampedWeight(t *testing.T) {
	tests := []struct {
		name     string
		weight   float64
		expected float64
	}{
		{"低于下界", 0.01, 0.1},
		{"正常范围", 3.0, 3.0},
		{"高于上界", 8.0, 5.0},
		{"恰为下界", 0.1, 0.1},
		{"恰为上界", 5.0, 5.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Faculty{PreferenceWeight: tt.weight}
			if got := f.ClampedWeight(); got != tt.expected {
				t.Errorf("ClampedWeight() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestFaculty_IsQualified(t *testing.T) {
	f := &Faculty{ID: 1, QualifiedSubjects: IDList{1, 3, 5}}

	if !f.IsQualified(3) {
		t.Error("IsQualified(3) = false, expected true")
	}
	if f.IsQualified(2) {
		t.Error("IsQualified(2) = true, expected false")
	}
}
