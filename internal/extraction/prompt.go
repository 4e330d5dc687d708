package extraction

const analyzePrompt = `You are an expert business analyst. Examine the business card images below (front, and back when provided). One side is often English and the other Traditional Chinese; combine what both sides say.

For name, title, companyName and address return both an English ("en") and a Traditional Chinese ("zh") value. Use an empty string for a language that does not appear on the card. Do not translate.

Return phone and email exactly as printed; they are language independent.

Using the company name, research the company and write a concise English summary of its business and background in companyDescription.

Answer only with JSON matching the response schema.`

const searchPrompt = `You are a business card search assistant. Given the user's query and the details of their saved cards, find the relevant cards.

Search query: %s

Card details:
%s

Answer in plain text. If nothing matches, say that no results were found.`
