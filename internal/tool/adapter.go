package tool

import (
	"context"

	"github.com/mitchellh/mapstructure"
)

// Validator is implemented by request structs that check their own fields
// after decoding.
type Validator interface {
	Validate() error
}

// Func runs a read-only tool on a decoded request.
type Func[Req any] func(ctx context.Context, req *Req) (string, error)

// PlanFunc turns a decoded request into a change awaiting approval.
type PlanFunc[Req any] func(ctx context.Context, req *Req) (*Change, error)

// Decode converts raw model arguments into a typed request using json tags,
// then runs the request's Validate method if it has one.
func Decode[Req any](args map[string]any) (*Req, error) {
	var req Req
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &req,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(args); err != nil {
		return nil, &ArgumentError{Reason: err.Error()}
	}
	if v, ok := any(&req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return &req, nil
}

// typedTool adapts a Func to the Tool interface.
type typedTool[Req any] struct {
	decl Declaration
	run  Func[Req]
}

// New builds a read-only tool from a typed function.
func New[Req any](decl Declaration, run Func[Req]) Tool {
	return &typedTool[Req]{decl: decl, run: run}
}

func (t *typedTool[Req]) Declaration() Declaration { return t.decl }

func (t *typedTool[Req]) Execute(ctx context.Context, args map[string]any) (out Outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = Fail(&PanicError{Tool: t.decl.Name, Value: r})
		}
	}()

	req, err := Decode[Req](args)
	if err != nil {
		return Fail(err)
	}
	output, err := t.run(ctx, req)
	if err != nil {
		return Fail(err)
	}
	return Succeed(output)
}

// mutatingTool adapts a PlanFunc to the Mutating interface.
type mutatingTool[Req any] struct {
	decl Declaration
	plan PlanFunc[Req]
}

// NewMutating builds an approval-gated tool from a typed planning function.
func NewMutating[Req any](decl Declaration, plan PlanFunc[Req]) Mutating {
	return &mutatingTool[Req]{decl: decl, plan: plan}
}

func (t *mutatingTool[Req]) Declaration() Declaration { return t.decl }

func (t *mutatingTool[Req]) Execute(ctx context.Context, args map[string]any) Outcome {
	return Fail(ErrApprovalRequired)
}

func (t *mutatingTool[Req]) Plan(ctx context.Context, args map[string]any) (ch *Change, err error) {
	defer func() {
		if r := recover(); r != nil {
			ch, err = nil, &PanicError{Tool: t.decl.Name, Value: r}
		}
	}()

	req, err := Decode[Req](args)
	if err != nil {
		return nil, err
	}
	ch, err = t.plan(ctx, req)
	if err != nil {
		return nil, err
	}
	if ch.Reason == "" {
		if reason, ok := args["reason"].(string); ok {
			ch.Reason = reason
		}
	}
	ch.Apply = guardApply(t.decl.Name, ch.Apply)
	return ch, nil
}

// guardApply converts panics in an apply function into failed outcomes.
func guardApply(name string, apply func(ctx context.Context) Outcome) func(ctx context.Context) Outcome {
	if apply == nil {
		return func(context.Context) Outcome { return Failf("tool %s has nothing to apply", name) }
	}
	return func(ctx context.Context) (out Outcome) {
		defer func() {
			if r := recover(); r != nil {
				out = Fail(&PanicError{Tool: name, Value: r})
			}
		}()
		return apply(ctx)
	}
}
