package services

import "fmt"

// Resource lists shown to creators when a gate does not pass.
var (
	culturalSupportResources = []string{
		"Community Values Guide",
		"Creator Collaboration Stories",
		"Office Hours with Community Mentors",
	}
	skillSupportResources = []string{
		"Creator Skill Foundations Course",
		"AI Collaboration Starter Workshops",
		"Peer Practice Circles",
	}
	technicalSupportResources = []string{
		"Technical Support",
		"Onboarding Status Page",
		"Creator Help Center",
	}
)

func culturalFailGuidance(score, threshold float64) string {
	return fmt.Sprintf(
		"Your alignment score is %.1f and the community threshold is %.0f. Take some time to explore how creators here collaborate with AI agents, "+
			"then revisit this step when it feels like a fit.",
		score, threshold,
	)
}

func culturalPassGuidance(score float64) string {
	return fmt.Sprintf("Welcome in. Your alignment score of %.1f shows a strong fit with how this community creates together.", score)
}

func skillFailGuidance(score, threshold float64) string {
	return fmt.Sprintf(
		"Your current skill score is %.1f and agent pairing starts at %.0f. Explore the foundations resources and come back once you have practiced a bit more.",
		score, threshold,
	)
}

const matcherFailGuidance = "Technical issues happen. We could not map agent roles for you right now; your progress is saved and you can retry shortly."

func supportCopy(in []string) []string {
	return append([]string(nil), in...)
}
