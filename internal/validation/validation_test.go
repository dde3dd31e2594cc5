package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gitlab.ozon.dev/pupkingeorgij/packagesync/internal/model"
)

func TestValidatePackage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	v := New(func() time.Time { return now })

	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	tests := []struct {
		name string
		pkg  model.Package
		want map[string]string
	}{
		{
			name: "valid without delivery date",
			pkg:  model.Package{Name: "Chair"},
		},
		{
			name: "valid with future delivery date",
			pkg:  model.Package{Name: "Chair", DateOfDelivery: &future},
		},
		{
			name: "empty name",
			pkg:  model.Package{Name: ""},
			want: map[string]string{"Name": "Name is required."},
		},
		{
			name: "blank name",
			pkg:  model.Package{Name: "   "},
			want: map[string]string{"Name": "Name is required."},
		},
		{
			name: "name too short",
			pkg:  model.Package{Name: "TV"},
			want: map[string]string{"Name": "Name must be between 3 and 255 characters."},
		},
		{
			name: "name too long",
			pkg:  model.Package{Name: strings.Repeat("x", 256)},
			want: map[string]string{"Name": "Name must be between 3 and 255 characters."},
		},
		{
			name: "name at upper bound",
			pkg:  model.Package{Name: strings.Repeat("x", 255)},
		},
		{
			name: "delivery date in the past",
			pkg:  model.Package{Name: "Chair", DateOfDelivery: &past},
			want: map[string]string{"DateOfDelivery": "Date of delivery must be in the future."},
		},
		{
			name: "delivery date equal to now",
			pkg:  model.Package{Name: "Chair", DateOfDelivery: &now},
			want: map[string]string{"DateOfDelivery": "Date of delivery must be in the future."},
		},
		{
			name: "both fields invalid",
			pkg:  model.Package{Name: "", DateOfDelivery: &past},
			want: map[string]string{
				"Name":           "Name is required.",
				"DateOfDelivery": "Date of delivery must be in the future.",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, v.ValidatePackage(tc.pkg))
		})
	}
}

func TestValidatePackage_CountsRunes(t *testing.T) {
	v := New(time.Now)
	assert.Nil(t, v.ValidatePackage(model.Package{Name: "Чай"}))
}
