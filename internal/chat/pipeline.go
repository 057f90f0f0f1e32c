package chat

import (
	"github.com/ChanHyuk-YOO/Plannie/internal/domain"
)

// SystemPrompt instructs the model to answer in two parts: prose for the
// user, then the JSON command after the delimiter.
const SystemPrompt = "당신의 응답은 반드시 두 부분으로 구성되어야 합니다. " +
	"첫 번째 부분은 사용자가 보게 될 자연어 응답이며, " +
	"두 번째 부분은 일정 관리 커맨드로, JSON 형식이어야 합니다. " +
	"이 두 부분은 반드시 '" + CommandDelimiter + "'라는 구분자로 나눠서 출력하세요."

// ModelClient is the language-model port: one prompt in, raw text out.
type ModelClient interface {
	Complete(system, user string) (string, error)
}

// Outcome is what one conversation turn produces.
type Outcome struct {
	Command       *domain.Command `json:"parsedCommand"`
	Result        *Result         `json:"dbResult"`
	FinalResponse string          `json:"finalResponse"`
}

// Pipeline wires model, extractor, normalizer and dispatcher together for
// one request at a time. It holds no per-request state, so a single
// Pipeline serves concurrent requests.
type Pipeline struct {
	model      ModelClient
	normalizer *Normalizer
	dispatcher *Dispatcher
}

func NewPipeline(model ModelClient, normalizer *Normalizer, repo Repository) *Pipeline {
	return &Pipeline{
		model:      model,
		normalizer: normalizer,
		dispatcher: NewDispatcher(repo),
	}
}

// Handle runs one conversation turn for the verified owner. Collaborator
// failures come back wrapped in the pipeline's error taxonomy; no error
// leaves a turn without a definite outcome.
func (p *Pipeline) Handle(owner, message string) (*Outcome, error) {
	reply, err := p.model.Complete(SystemPrompt, message)
	if err != nil {
		return nil, &ModelUnavailableError{Err: err}
	}

	natural, raw, err := ExtractCommand(reply)
	if err != nil {
		return nil, err
	}

	cmd, err := p.normalizer.Normalize(raw, owner)
	if err != nil {
		return nil, err
	}

	result, err := p.dispatcher.Dispatch(cmd)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Command:       cmd,
		Result:        result,
		FinalResponse: FormatResponse(natural, result),
	}, nil
}
