package generative

import "fmt"

const receiptJSONShape = `{
  "store_name": "店名",
  "date": "YYYY-MM-DD",
  "total_amount": 1500,
  "tax_excluded_amount": 1364,
  "tax_included_amount": 1500,
  "items": [
    {"name": "商品名", "price": 198, "quantity": 1}
  ],
  "payment_method": "現金",
  "receipt_number": "No.1234"
}`

// textPrompt asks the model to structure already-extracted OCR text.
func textPrompt(ocrText string) string {
	return fmt.Sprintf(`以下は日本のレシートをOCRで読み取ったテキストです。
内容を解析し、次のJSON形式だけで出力してください。説明文やマークダウンは不要です。

%s

読み取れない項目はnullにしてください。金額は数値で出力してください。
日付は必ずYYYY-MM-DD形式に変換してください(令和・平成は西暦に直す)。

OCRテキスト:
%s`, receiptJSONShape, ocrText)
}

// visionPrompt asks the model to read the receipt image directly.
func visionPrompt() string {
	return fmt.Sprintf(`この画像は日本のレシートです。記載内容を読み取り、
次のJSON形式だけで出力してください。説明文やマークダウンは不要です。

%s

読み取れない項目はnullにしてください。金額は数値で出力してください。
日付は必ずYYYY-MM-DD形式に変換してください(令和・平成は西暦に直す)。`, receiptJSONShape)
}
