package words

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ettorre/wordarena/internal/dependencies/random"
)

// Service holds the static word list loaded at startup. The list is
// immutable for the process lifetime, so lookups need no locking.
type Service struct {
	list   []string
	member map[string]struct{}
	random random.Random
}

// New creates a word list service over the given words
func New(list []string, rnd random.Random) *Service {
	member := make(map[string]struct{}, len(list))
	for _, w := range list {
		member[w] = struct{}{}
	}
	return &Service{
		list:   list,
		member: member,
		random: rnd,
	}
}

// LoadFile reads a line-delimited word list and builds a service over it
func LoadFile(path string, rnd random.Random) (*Service, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening word list: %w", err)
	}
	defer file.Close()

	var list []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word != "" {
			list = append(list, word)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading word list: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("word list %s is empty", path)
	}

	return New(list, rnd), nil
}

// Contains reports whether a word is in the list
func (s *Service) Contains(word string) bool {
	_, ok := s.member[word]
	return ok
}

// Pick returns a uniformly random word from the list
func (s *Service) Pick() string {
	return s.list[s.random.Intn(len(s.list))]
}

// Count returns the size of the list
func (s *Service) Count() int {
	return len(s.list)
}
