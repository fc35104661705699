// Package processor contains the describe pipeline. For every request it
// resets scratch storage, stores the upload and then runs detection,
// captioning, translation and speech synthesis strictly in that order.
//
// Only two failures abort a request: storing the upload and captioning.
// Detection degrades to an empty label list, translation to the original
// caption and speech to a missing audio clip. Requests are serialised
// because every run wipes the shared scratch directories.
package processor
