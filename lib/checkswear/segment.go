package checkswear

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned when a scoring input is neither a single text
// nor a list of segments.
var ErrInvalidInput = errors.New("input must be a single text or a list of segments")

type inputKind int

const (
	inputNone inputKind = iota
	inputText
	inputSegments
)

// Input is a scoring input with two explicit variants: one raw text to be
// segmented by the checker, or caller-provided segments scored as-is.
type Input struct {
	kind     inputKind
	text     string
	segments []string
}

// Text makes an Input from a single raw string.
func Text(s string) Input { return Input{kind: inputText, text: s} }

// Segments makes an Input from pre-segmented texts, each element is scored
// independently in order.
func Segments(ss []string) Input { return Input{kind: inputSegments, segments: ss} }

// segmentInput splits an input into analysis units. For pre-segmented input a
// configured bin count is ignored with an advisory, segmentation is already
// provided by the caller.
func segmentInput(in Input, bins int) (units []string, notices []Notice, err error) {
	switch in.kind {
	case inputText:
		units, notices = segmentText(in.text, bins)
		return units, notices, nil
	case inputSegments:
		units = append([]string{}, in.segments...)
		if bins > 0 {
			notices = append(notices, Notice{Name: "bins",
				Details: "pre-segmented input, bins parameter ignored"})
		}
		return units, notices, nil
	default:
		return nil, nil, ErrInvalidInput
	}
}

// segmentText splits a text into bins of whole words. With W words and N bins
// each bin gets W/N words and the W%N trailing words land in the last bin.
// Every word appears exactly once across the bins.
func segmentText(text string, bins int) (units []string, notices []Notice) {
	if bins <= 0 {
		return []string{text}, nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		notices = append(notices, Notice{Name: "bins",
			Details: "no words to segment, bins parameter ignored"})
		return []string{text}, notices
	}
	if bins > len(words) {
		notices = append(notices, Notice{Name: "bins",
			Details: fmt.Sprintf("bins %d larger than word count, clamped to %d", bins, len(words))})
		bins = len(words)
	}

	step := len(words) / bins
	units = make([]string, bins)
	for i := 0; i < bins; i++ {
		hi := min((i+1)*step, len(words))
		units[i] = strings.Join(words[i*step:hi], " ")
	}
	if rem := len(words) % bins; rem > 0 {
		units[bins-1] += " " + strings.Join(words[len(words)-rem:], " ")
	}
	return units, notices
}
