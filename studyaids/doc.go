// Package studyaids derives quizzes and flashcards from indexed documents.
//
// The Builder reassembles a document from its stored chunks, trims it to a
// prompt-sized excerpt, and asks the generation backend for structured
// JSON. Before unmarshaling, markdown code fences are stripped and common
// JSON defects repaired, with a bounded number of regeneration attempts
// for unparseable responses.
package studyaids
