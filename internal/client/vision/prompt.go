package vision

// extractionPrompt is sent alongside the card photo. The six keys must match
// models.CardIdentification.
const extractionPrompt = `Analyze this Pokémon trading card image and extract the following information. Respond ONLY with valid JSON in this exact format:

{
  "cardName": "card name here",
  "setName": "set name here",
  "cardNumber": "card number/total (e.g., 25/102)",
  "rarity": "Common/Uncommon/Rare/Holo Rare/etc",
  "condition": "Mint/Near Mint/Lightly Played/Moderately Played/Heavily Played/Damaged",
  "confidence": "High/Medium/Low"
}

If you cannot identify the card clearly, set confidence to "Low" and use "Unknown" for fields you're unsure about.`
