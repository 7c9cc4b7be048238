package onboarding

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNotFoundErrorMessage(t *testing.T) {
	err := NotFoundError("ProcessSkillAssessment")
	if !IsCode(err, CodeNotFound) {
		t.Fatalf("expected not_found code, got %q", CodeOf(err))
	}
	if !strings.Contains(err.Error(), "profile not found") {
		t.Fatalf("message should identify missing profile: %v", err)
	}
}

func TestFeatureDisabledNamesCapability(t *testing.T) {
	err := FeatureDisabledError("InitiateOnboarding", "Creator onboarding pipeline")
	if !strings.Contains(err.Error(), "Creator onboarding pipeline is not currently enabled") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestCodeSurvivesWrapping(t *testing.T) {
	cause := errors.New("catalog offline")
	err := fmt.Errorf("outer: %w", ServiceUnavailableError("FindBestMatches", "agent role catalog", cause))
	if CodeOf(err) != CodeServiceUnavailable {
		t.Fatalf("expected service_unavailable, got %q", CodeOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should be reachable through Unwrap")
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(CodeInternal, "op", nil) != nil {
		t.Fatalf("Wrap(nil) should be nil")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}
