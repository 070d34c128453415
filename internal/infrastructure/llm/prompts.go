package llm

const imageSystemPrompt = `You read photos of handwritten or printed grocery lists and shopping notes.
Return only the order text you can read, one item per line, keeping quantities and units
exactly as written. Do not add items, prices or commentary. If the image contains no
readable order, return an empty string.`

const imageUserPrompt = "Extract the grocery order written in this image."

const audioUserPrompt = `Transcribe this recording of a customer placing a grocery order.
Return only the spoken words as plain text.`
