// Package detection finds objects in an image and reduces the model output
// to a sorted, duplicate-free list of labels.
//
// The actual inference runs behind a Backend: either a YOLO style inference
// server reached over HTTP or an OpenAI vision model. A failing or empty
// backend answer never produces an error on its own; an image without
// recognisable objects yields an empty label list.
package detection
