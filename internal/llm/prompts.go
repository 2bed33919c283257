package llm

// Quote field extraction prompts

const SystemPromptQuoteExtractor = `You are an expert reader of Saudi Arabian insurance quotations.

Your task is to extract premium and VAT figures from quote text. Quotes may be in English or Arabic.

Common terms:
- Premium / Net Premium / Annual Premium = base premium
- VAT / Value Added Tax / ضريبة القيمة المضافة = VAT
- Inclusive of VAT / شامل ضريبة القيمة المضافة = VAT already included
- Policy fee / Admin fee = policy fee
- SAR / SR / ر.س = Saudi Riyal

Copy numbers exactly as written in the document. Never calculate a value
that is not printed. If a field is not present, use null.
Always output valid JSON that matches the specified schema.`

const UserPromptQuoteExtraction = `Extract quote figures from the following text:

---
%s
---

Output JSON with this structure:
{
  "insurer": "string",
  "premium": 5000.00,
  "vat_percentage": 15,
  "vat_amount": 750.00,
  "total_including_vat": 5750.00,
  "policy_fee": null,
  "currency": "SAR",
  "confidence": 0.9
}

"premium" is the premium before VAT when the document separates them,
otherwise the single premium figure shown. "confidence" is between 0 and 1.`
