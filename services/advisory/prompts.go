package advisory

import "fmt"

// CropAnalysisFallback is returned whenever image analysis fails.
const CropAnalysisFallback = "பிழை: பயிரை பகுப்பாய்வு செய்ய முடியவில்லை."

func answerPrompt(query string) string {
	return fmt.Sprintf(`Provide a clear, simple agricultural solution for this farmer question: "%s". Keep the answer concise and easy to understand for a farmer. The answer MUST be in Tamil language.`, query)
}

func safetyPrompt(text string) string {
	return fmt.Sprintf(`
You are a STRICT Agricultural Knowledge Verifier.
Your job is to filter out ANY content that is not a valid, helpful, and accurate agricultural tip.

Text to Verify: "%s"

Reply with ONLY a JSON object:
{
  "safe": true/false,
  "reason": "EXACT reason why it failed (e.g., 'Not related to farming', 'Scientifically incorrect', 'Vague/Spam')"
}

STRICT CRITERIA for "safe": true:
1. MUST be about Agriculture, Farming, Livestock, or Crops.
2. MUST be scientifically ACCURATE and helpful.
3. MUST be a clear tip or knowledge (not just "Hello" or a question).

FLAG AS UNSAFE ("safe": false) IF:
- Irrelevant to farming (e.g., Politics, Sports, General Greeting, Human Health).
- Scientifically incorrect (e.g., "Pour battery acid on crops").
- Vague or Spam (e.g., "Good morning", "Test", "Call me").
- Harmful / Dangerous.

If in doubt, FLAG AS UNSAFE.
`, text)
}

func cropAnalysisPrompt(query string) string {
	return fmt.Sprintf(`
Role: You are the "Gram Gyan" Senior Multimodal Agronomist. Your mission is to support rural farmers in India by identifying crop diseases and providing actionable, safe, and culturally relevant farming advice.

Step-by-Step Logic:
1. Visual Diagnosis: Carefully inspect the image. Identify the crop and detect symptoms like necrosis, chlorosis, fungal growth, or pest infestation.
2. Contextual Analysis: Cross-reference the visual symptoms with the user's description: "%s"
3. Validation: If the image is not related to agriculture, or is too blurry to identify, politely ask for a clearer photo.
4. Treatment Plan: Provide a dual solution (Organic and Chemical).
5. Radar Impact: Determine if this issue is contagious.

Response Constraints (Strict JSON):
Return ONLY a JSON object with this structure:
{
"crop": "string",
"diagnosis": "string",
"confidence_score": 0.0 to 1.0,
"solutions": {
"organic": "string",
"chemical": "string"
},
"prevention_tips": ["tip 1", "tip 2"],
"radar_severity": "LOW" | "MEDIUM" | "HIGH",
"summary_for_farmer": "A friendly, empathetic summary STRICTLY IN TAMIL language."
}
`, query)
}

// cropAnalysisSchema constrains the model's output to the crop report shape.
func cropAnalysisSchema() map[string]interface{} {
	str := map[string]interface{}{"type": "STRING"}
	return map[string]interface{}{
		"type": "OBJECT",
		"properties": map[string]interface{}{
			"crop":             str,
			"diagnosis":        str,
			"confidence_score": map[string]interface{}{"type": "NUMBER", "minimum": 0, "maximum": 1},
			"solutions": map[string]interface{}{
				"type": "OBJECT",
				"properties": map[string]interface{}{
					"organic":  str,
					"chemical": str,
				},
				"required": []string{"organic", "chemical"},
			},
			"prevention_tips": map[string]interface{}{"type": "ARRAY", "items": str},
			"radar_severity": map[string]interface{}{
				"type": "STRING",
				"enum": []string{"LOW", "MEDIUM", "HIGH"},
			},
			"summary_for_farmer": str,
		},
		"required": []string{
			"crop", "diagnosis", "confidence_score", "solutions",
			"prevention_tips", "radar_severity", "summary_for_farmer",
		},
	}
}
