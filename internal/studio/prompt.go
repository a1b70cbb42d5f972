package studio

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Instruction is the fixed system message sent with every prompt request.
const Instruction = "You are an expert at crafting detailed image generation prompts. " +
	"Focus on creating vivid, specific descriptions that work well with DALL-E 3."

// BuildRequest renders the user message asking for an image prompt.
func BuildRequest(r Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a detailed image prompt for a %d-year-old named %s who loves %s.\n\n", r.Age, r.Name, r.Hobby)
	b.WriteString("Key elements to incorporate:\n")
	fmt.Fprintf(&b, "- Favorite color: %s\n", r.Color)
	fmt.Fprintf(&b, "- Visual style: %s\n", r.Style)
	fmt.Fprintf(&b, "- Mood: %s\n", r.Mood)
	fmt.Fprintf(&b, "- Filter effect: %s\n\n", r.Filter)
	b.WriteString("Create a personalized, artistic scene that captures their interests and personality. ")
	b.WriteString("Focus on cinematic composition, dramatic lighting, and high-quality details. ")
	b.WriteString("Make it engaging and suitable for an expo demonstration. ")
	b.WriteString("Ensure the image is family-friendly and appropriate for all ages.")
	return b.String()
}

// Summary renders the short "what we are creating" block shown next to the
// image.
func Summary(r Request) string {
	title := cases.Title(language.English, cases.NoLower)
	var b strings.Builder
	fmt.Fprintf(&b, "A personalized image for %s\n", r.Name)
	fmt.Fprintf(&b, "• Hobby: %s\n", title.String(r.Hobby))
	fmt.Fprintf(&b, "• Style: %s\n", title.String(r.Style))
	fmt.Fprintf(&b, "• Mood: %s\n", title.String(r.Mood))
	fmt.Fprintf(&b, "• Filter: %s", title.String(r.Filter))
	return b.String()
}
