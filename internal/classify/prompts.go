package classify

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sells-group/hoa-onboard/internal/model"
	"github.com/sells-group/hoa-onboard/internal/resolve"
)

// Questions are the seven onboarding questions sent to every HOA.
var Questions = []string{
	"Property management confirmation (Do you manage the listed properties?)",
	"Regular dues amount",
	"Payment method preference",
	"Payment address (mailing address for payments)",
	"Master HOA name (if applicable)",
	"Phone number for HOA business",
	"Management company name (if applicable)",
}

const systemPrompt = `You assist a property management team that onboards Homeowners Associations (HOAs).
You read HOA email replies and answer only with a single JSON object in the exact shape requested. Do not add commentary outside the JSON.`

var categoryDescriptions = []struct {
	category model.Category
	text     string
}{
	{model.CategoryCompleteResponse, "HOA has answered ALL required questions clearly"},
	{model.CategoryRequestingClarification, "HOA is asking for more details or clarification before answering"},
	{model.CategoryIncompleteResponse, "HOA answered SOME but not all required questions"},
	{model.CategoryNoPropertyManagement, "HOA states they don't manage any properties"},
	{model.CategoryPartialPropertyManagement, "HOA manages some but not all properties in our database"},
}

const analysisShape = `{
    "category": "one_of_the_five_categories_above",
    "confidence": 85,
    "extracted_data": {
        "manages_properties": true/false/null,
        "properties_confirmation": "extracted text or null",
        "regular_dues_amount": "extracted amount or null",
        "payment_method": "extracted method or null",
        "payment_address": "extracted address or null",
        "master_hoa_name": "extracted name or null",
        "phone_number": "extracted phone or null",
        "management_company": "extracted company or null"
    },
    "reasoning": "Brief explanation of why you chose this category and what information was found"
}`

func analysisPrompt(hoa model.HOA, propertyCount int, content string) string {
	var b strings.Builder
	b.WriteString("HOA Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", hoa.Name)
	fmt.Fprintf(&b, "- Contact Email: %s\n", hoa.ContactEmail)
	fmt.Fprintf(&b, "- Properties Count: %d\n\n", propertyCount)

	b.WriteString("We sent this HOA an email asking for the following information:\n")
	for _, q := range Questions {
		fmt.Fprintf(&b, "- %s\n", q)
	}

	b.WriteString("\nHere is their email response:\n---\n")
	b.WriteString(content)
	b.WriteString("\n---\n\n")

	b.WriteString("Categorize this response into ONE of these scenarios:\n\n")
	for i, c := range categoryDescriptions {
		fmt.Fprintf(&b, "%d. %q: %s\n", i+1, string(c.category), c.text)
	}
	b.WriteString("\nFor each answered question, extract the specific information provided.\n\n")
	b.WriteString("Respond in this exact JSON format:\n")
	b.WriteString(analysisShape)
	b.WriteString("\n")
	return b.String()
}

// instructions holds the drafting guidance for each category.
func instructions(team Team) map[model.Category][]string {
	contact := team.Contact()
	return map[model.Category][]string{
		model.CategoryCompleteResponse: {
			"Thank them for providing all the information",
			fmt.Sprintf("Ask them to add %q as the contact for future communications regarding these properties", contact),
			"Confirm we have all needed details",
		},
		model.CategoryRequestingClarification: {
			"Address their specific questions or concerns",
			"Provide the clarification they requested",
			"Re-ask for the original information we need",
		},
		model.CategoryIncompleteResponse: {
			"Thank them for the partial information",
			"Politely ask for the missing information, explaining why each item is needed",
			`Example: "Please share the payment address - this helps us make timely payments"`,
		},
		model.CategoryNoPropertyManagement: {
			"Thank them for clarifying",
			"Ask them to disregard our email",
			"Apologize for any confusion",
		},
		model.CategoryPartialPropertyManagement: {
			"Confirm which properties they don't manage",
			"Ask them to verify this detail",
			"Request information only for the properties they do manage",
		},
	}
}

func followUpPrompt(hoa model.HOA, content string, analysis model.AnalysisResult, team Team) string {
	extracted, err := json.MarshalIndent(analysis.ExtractedData, "", "  ")
	if err != nil {
		extracted = []byte("{}")
	}

	var b strings.Builder
	b.WriteString("Write a professional follow-up email to an HOA.\n\n")
	b.WriteString("HOA Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", hoa.Name)
	fmt.Fprintf(&b, "- Contact Email: %s\n\n", hoa.ContactEmail)

	b.WriteString("Original HOA Response:\n---\n")
	b.WriteString(content)
	b.WriteString("\n---\n\n")

	b.WriteString("Analysis Result:\n")
	fmt.Fprintf(&b, "- Category: %s\n", analysis.Category)
	fmt.Fprintf(&b, "- Extracted Data: %s\n\n", extracted)

	fmt.Fprintf(&b, "Based on the category %q, follow the matching instructions:\n\n", string(analysis.Category))
	blocks := instructions(team)
	for _, c := range categoryDescriptions {
		fmt.Fprintf(&b, "If %q:\n", string(c.category))
		for _, line := range blocks[c.category] {
			fmt.Fprintf(&b, "- %s\n", line)
		}
		b.WriteString("\n")
	}

	b.WriteString("RESPONSE REQUIREMENTS:\n")
	for _, line := range []string{
		"Professional and courteous tone",
		"Reference their original response appropriately",
		"Be specific about what information is still needed",
		"Keep it concise but complete",
		"Use HTML format for the body",
		fmt.Sprintf("When asking to add contact information, use %q", team.Contact()),
		fmt.Sprintf("Sign the email as %q", team.Name),
	} {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	b.WriteString("\nRespond in this exact JSON format:\n")
	fmt.Fprintf(&b, `{
    "subject": "Re: %s - %s",
    "body": "HTML formatted email body",
    "reasoning": "Brief explanation of the response strategy"
}`, resolve.SubjectMarker, hoa.Name)
	b.WriteString("\n")
	return b.String()
}
