// Package models lists the OpenAI models an API key can reach, grouped by
// the pipeline stage that can use them: vision models for detection and
// captioning, TTS models for speech and chat models for translation.
package models
