// Package knowledge implements retrieval against the Dify dataset API: it
// resolves the upstream credential, issues one authenticated query per tool
// call, and normalizes the loosely structured JSON response into readable
// text. Nothing here retries, caches, or ranks; a failed call is final.
package knowledge
