package config

import (
	"errors"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration marks a configuration value that can never be run.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// AutoParallelism asks for one worker per CPU core on the host.
const AutoParallelism = "auto"

// Parallelism is the raw "parallel" setting: an explicit worker count or a
// word. Only the word "auto" is valid. An unset value means one worker.
type Parallelism struct {
	count  int
	word   string
	isSet  bool
	isWord bool
}

// Count returns an explicit worker count setting.
func Count(n int) Parallelism {
	return Parallelism{count: n, isSet: true}
}

// Word returns a string setting. Anything other than "auto" is invalid.
func Word(s string) Parallelism {
	return Parallelism{word: s, isSet: true, isWord: true}
}

// Auto returns the "auto" setting.
func Auto() Parallelism {
	return Word(AutoParallelism)
}

// IsAuto reports whether the host should be probed for a worker count.
func (p Parallelism) IsAuto() bool {
	return p.isWord && p.word == AutoParallelism
}

// Explicit returns the explicit worker count, defaulting to 1 when unset.
// ok is false for word settings.
func (p Parallelism) Explicit() (n int, ok bool) {
	if !p.isSet {
		return 1, true
	}
	if p.isWord {
		return 0, false
	}
	return p.count, true
}

// Validate returns an error wrapping ErrInvalidConfiguration for a word other
// than "auto" or an integer below 1.
func (p Parallelism) Validate() error {
	if p.isWord {
		if p.word != AutoParallelism {
			return fmt.Errorf("%w: when option 'parallel' is non-numeric it can only be %q, got %q", ErrInvalidConfiguration, AutoParallelism, p.word)
		}
		return nil
	}
	if n, _ := p.Explicit(); n < 1 {
		return fmt.Errorf("%w: option 'parallel' must be a positive integer, got %d", ErrInvalidConfiguration, n)
	}
	return nil
}

func (p Parallelism) String() string {
	if p.isWord {
		return p.word
	}
	n, _ := p.Explicit()
	return strconv.Itoa(n)
}

// UnmarshalYAML implements yaml.Unmarshaler. Integers are kept as counts;
// every other scalar, including quoted digits, is kept as a word.
func (p *Parallelism) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: parallel must be an integer or %q", node.Line, AutoParallelism)
	}
	switch node.Tag {
	case "!!null":
		*p = Parallelism{}
	case "!!int":
		var n int
		if err := node.Decode(&n); err != nil {
			return err
		}
		*p = Count(n)
	default:
		*p = Word(node.Value)
	}
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (p Parallelism) MarshalYAML() (any, error) {
	if p.isWord {
		return p.word, nil
	}
	n, _ := p.Explicit()
	return n, nil
}
