package templates

import (
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	oerrors "github.com/aucampia/copier-python/internal/errors"
)

// QuestionsFile is the template's questions and settings file.
const QuestionsFile = "copier.yml"

// DefaultAnswersFile is where the resolved answers are recorded when the
// template does not choose another path.
const DefaultAnswersFile = ".copier-answers.yml"

// Settings are the underscore-prefixed keys of the questions file.
type Settings struct {
	MinVersion  string   `yaml:"_min_scaffold_version"`
	AnswersFile string   `yaml:"_answers_file"`
	Exclude     []string `yaml:"_exclude"`
}

// Question is one templated answer with its default.
type Question struct {
	Name    string
	Type    string   `yaml:"type"`
	Help    string   `yaml:"help"`
	Default any      `yaml:"default"`
	Choices []string `yaml:"choices"`
}

// Questions is a parsed questions file. Question order is the file order,
// so defaults may refer to earlier answers.
type Questions struct {
	Settings  Settings
	Questions []Question
}

// LoadQuestions reads the questions file at the root of fsys.
func LoadQuestions(fsys fs.FS) (*Questions, error) {
	data, err := fs.ReadFile(fsys, QuestionsFile)
	if err != nil {
		return nil, oerrors.NewNotFoundError("reading "+QuestionsFile, QuestionsFile, "")
	}
	return ParseQuestions(data)
}

// ParseQuestions parses questions file content.
func ParseQuestions(data []byte) (*Questions, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid %s: %v", QuestionsFile, err), QuestionsFile, "", "")
	}

	q := &Questions{}
	if len(root.Content) == 0 {
		q.Settings.AnswersFile = DefaultAnswersFile
		return q, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, oerrors.NewValidationError(QuestionsFile+" must be a mapping", QuestionsFile, "", "")
	}
	if err := doc.Decode(&q.Settings); err != nil {
		return nil, oerrors.NewValidationError(
			fmt.Sprintf("invalid settings: %v", err), QuestionsFile, "", "")
	}
	if q.Settings.AnswersFile == "" {
		q.Settings.AnswersFile = DefaultAnswersFile
	}

	for i := 0; i+1 < len(doc.Content); i += 2 {
		name := doc.Content[i].Value
		if strings.HasPrefix(name, "_") {
			continue
		}
		question, err := decodeQuestion(name, doc.Content[i+1])
		if err != nil {
			return nil, err
		}
		q.Questions = append(q.Questions, question)
	}
	return q, nil
}

// decodeQuestion accepts the full mapping form and the scalar shorthand,
// where the value is the default.
func decodeQuestion(name string, node *yaml.Node) (Question, error) {
	question := Question{Name: name}
	if node.Kind != yaml.MappingNode {
		if err := node.Decode(&question.Default); err != nil {
			return question, oerrors.NewValidationError(
				fmt.Sprintf("invalid default: %v", err), QuestionsFile, name, "")
		}
		return question, nil
	}
	if err := node.Decode(&question); err != nil {
		return question, oerrors.NewValidationError(
			fmt.Sprintf("invalid question: %v", err), QuestionsFile, name, "")
	}
	question.Name = name
	return question, nil
}

// Resolve answers every question: a provided value wins, otherwise the
// default is used, string defaults rendered against the answers so far.
// Provided keys without a question are carried through.
func (q *Questions) Resolve(provided map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(provided)+len(q.Questions))
	for k, v := range provided {
		values[k] = v
	}

	for _, question := range q.Questions {
		value, ok := provided[question.Name]
		if !ok {
			value = question.Default
			if s, isString := value.(string); isString {
				rendered, err := NewRenderer(values).RenderString(s)
				if err != nil {
					return nil, oerrors.NewValidationError(
						fmt.Sprintf("rendering default: %v", err), QuestionsFile, question.Name, "")
				}
				value = rendered
			}
		}

		value, err := question.coerce(value)
		if err != nil {
			return nil, err
		}
		if err := question.checkChoice(value); err != nil {
			return nil, err
		}
		values[question.Name] = value
	}
	return values, nil
}

func (q Question) coerce(value any) (any, error) {
	if q.Type != "bool" {
		return value, nil
	}
	switch v := value.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(v) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0", "":
			return false, nil
		}
	case nil:
		return false, nil
	}
	return nil, oerrors.NewValidationError(
		fmt.Sprintf("expected a boolean, got %v", value), QuestionsFile, q.Name, "")
}

func (q Question) checkChoice(value any) error {
	if len(q.Choices) == 0 {
		return nil
	}
	s := fmt.Sprint(value)
	for _, choice := range q.Choices {
		if choice == s {
			return nil
		}
	}
	return oerrors.NewValidationError(
		fmt.Sprintf("invalid value %q", s), QuestionsFile, q.Name,
		"Valid values: "+strings.Join(q.Choices, ", "))
}
