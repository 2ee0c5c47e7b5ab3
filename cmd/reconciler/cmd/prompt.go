package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// prompter asks the operator for missing values, re-asking until an answer
// is acceptable
type prompter struct {
	in  *bufio.Reader
	out io.Writer
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	return &prompter{in: bufio.NewReader(in), out: out}
}

// ask prints question and returns the trimmed answer. Surrounding quotes,
// as left by dragging a file into a terminal, are removed.
func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)

	line, err := p.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("no answer for %q: %w", strings.TrimSpace(question), err)
	}

	return strings.Trim(strings.TrimSpace(line), `"'`), nil
}

// askFile asks for the path of an existing file
func (p *prompter) askFile(question, description string) (string, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if err := validateFileExists(answer, description); err != nil {
			fmt.Fprintln(p.out, "File not found. Please enter a valid path.")
			continue
		}
		return answer, nil
	}
}

// askDir asks for an existing folder
func (p *prompter) askDir(question string) (string, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if info, err := os.Stat(answer); err != nil || !info.IsDir() {
			fmt.Fprintln(p.out, "Folder not found. Please enter a valid path.")
			continue
		}
		return answer, nil
	}
}

// askName asks for a non-empty name
func (p *prompter) askName(question string) (string, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return "", err
		}
		if answer == "" {
			fmt.Fprintln(p.out, "Name cannot be empty.")
			continue
		}
		return answer, nil
	}
}

// askBuffer asks for a non-negative whole number of rupees
func (p *prompter) askBuffer(question string) (int64, error) {
	for {
		answer, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		buffer, err := strconv.ParseInt(answer, 10, 64)
		if err != nil || buffer < 0 {
			fmt.Fprintln(p.out, "Invalid input. Please enter a valid integer.")
			continue
		}
		return buffer, nil
	}
}
