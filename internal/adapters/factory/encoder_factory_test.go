package factory

import (
	"reflect"
	"strings"
	"testing"

	"github.com/hailam/chaoslog/internal/adapters/plain"
	"github.com/hailam/chaoslog/internal/adapters/targz"
	"github.com/hailam/chaoslog/internal/adapters/zip"
	"github.com/hailam/chaoslog/internal/ports"
)

func TestNewStaticEncoderFactory(t *testing.T) {
	factory := NewStaticEncoderFactory()
	if factory == nil {
		t.Fatal("NewStaticEncoderFactory() returned nil")
	}
	// Check if it implements the interface
	var _ ports.EncoderFactory = factory
}

func TestStaticEncoderFactory_For(t *testing.T) {
	factory := NewStaticEncoderFactory()

	tests := []struct {
		name        string
		format      ports.Format
		wantType    reflect.Type
		wantErr     bool
		wantErrText string
	}{
		{"Plain", ports.FormatPlain, reflect.TypeOf(plain.New()), false, ""},
		{"Zip", ports.FormatZip, reflect.TypeOf(zip.New()), false, ""},
		{"Tarball", ports.FormatTarball, reflect.TypeOf(targz.New()), false, ""},
		{"Unsupported", ports.Format("rar"), nil, true, "unsupported format: 'rar'"},
		{"Empty", ports.Format(""), nil, true, "unsupported format: ''"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := factory.For(tc.format)

			if (err != nil) != tc.wantErr {
				t.Fatalf("For(%q) error = %v, wantErr %v", tc.format, err, tc.wantErr)
			}
			if tc.wantErr {
				if !strings.Contains(err.Error(), tc.wantErrText) {
					t.Errorf("For(%q) error = %q, expected error containing %q", tc.format, err.Error(), tc.wantErrText)
				}
				return
			}
			if reflect.TypeOf(got) != tc.wantType {
				t.Errorf("For(%q) returned %T, want %v", tc.format, got, tc.wantType)
			}
		})
	}
}

func TestStaticEncoderFactory_Formats(t *testing.T) {
	got := NewStaticEncoderFactory().Formats()
	want := []ports.Format{ports.FormatPlain, ports.FormatTarball, ports.FormatZip}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Formats() = %v, want %v", got, want)
	}
}
