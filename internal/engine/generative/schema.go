package generative

import "github.com/santhosh-tekuri/jsonschema/v5"

// receiptSchema constrains the model output before any field coercion
// runs. Amounts accept numbers or strings; coercion handles the rest.
var receiptSchema = jsonschema.MustCompileString("receipt.json", `{
  "type": "object",
  "required": ["store_name"],
  "properties": {
    "store_name": {"type": "string", "minLength": 1},
    "date": {"type": ["string", "null"]},
    "total_amount": {"type": ["number", "string", "null"]},
    "tax_excluded_amount": {"type": ["number", "string", "null"]},
    "tax_included_amount": {"type": ["number", "string", "null"]},
    "items": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "required": ["name"],
        "properties": {
          "name": {"type": "string", "minLength": 1},
          "price": {"type": ["number", "string", "null"]},
          "quantity": {"type": ["integer", "number", "null"]}
        }
      }
    },
    "payment_method": {"type": ["string", "null"]},
    "receipt_number": {"type": ["string", "null"]}
  }
}`)
