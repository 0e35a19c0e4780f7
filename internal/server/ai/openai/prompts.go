package openai

const extractionSystemPrompt = `Extract the following categories of entities from the transcription text provided by the user:
1. Deities: gods, goddesses, spiritual figures, divine beings.
2. Places: geographical locations, cities, villages, temples, shrines, mountains, rivers, landmarks.
3. Botanicals: plants, herbs, trees, flowers, medicinal plants.

Output ONLY a valid JSON object with exactly these keys:
- "deities" (array of strings)
- "places" (array of strings)
- "botanicals" (array of strings)

If no entities are found for a category, return an empty array for that
category. Do not include any preamble, explanation or markdown. Start your
response with the opening brace { and end with the closing brace }.`
