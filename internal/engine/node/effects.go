package node

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-terrain/internal/engine/shader"
)

// Effect is a terrain feature installed on the node. Install typically
// reserves texture units, declares requirements and registers callbacks;
// Uninstall undoes all of it.
type Effect interface {
	// Tag names the effect kind. At most one effect per tag is installed.
	Tag() string
	Install(n *Node) error
	Uninstall(n *Node)
	// Samplers lists the sampler bindings the effect contributes to terrain shaders.
	Samplers() []shader.Sampler
}

// AddEffect installs e. When installation fails, e is not registered and the
// error is returned; effects clean up after a failed Install themselves.
func (n *Node) AddEffect(e Effect) error {
	n.mu.RLock()
	shutdown := n.shutdown
	_, dup := n.effectsByTag[e.Tag()]
	n.mu.RUnlock()
	if shutdown {
		return ErrEngineShutDown
	}
	if dup {
		return fmt.Errorf("%w: %s", ErrDuplicateEffect, e.Tag())
	}

	if err := e.Install(n); err != nil {
		n.log.Warn("effect install failed", zap.String("effect", e.Tag()), zap.Error(err))
		return fmt.Errorf("install %s: %w", e.Tag(), err)
	}

	n.mu.Lock()
	if _, dup := n.effectsByTag[e.Tag()]; dup || n.shutdown {
		n.mu.Unlock()
		e.Uninstall(n)
		if dup {
			return fmt.Errorf("%w: %s", ErrDuplicateEffect, e.Tag())
		}
		return ErrEngineShutDown
	}
	n.effects = append(n.effects, e)
	n.effectsByTag[e.Tag()] = e
	n.dirtyState = true
	n.mu.Unlock()

	n.log.Info("effect installed", zap.String("effect", e.Tag()))
	return nil
}

// RemoveEffect uninstalls e. Effects that are not installed are ignored.
func (n *Node) RemoveEffect(e Effect) {
	n.mu.Lock()
	idx := -1
	for i, have := range n.effects {
		if have == e {
			idx = i
			break
		}
	}
	if idx < 0 {
		n.mu.Unlock()
		return
	}
	n.effects = append(n.effects[:idx:idx], n.effects[idx+1:]...)
	delete(n.effectsByTag, e.Tag())
	n.dirtyState = true
	n.mu.Unlock()

	e.Uninstall(n)
	n.log.Info("effect removed", zap.String("effect", e.Tag()))
}

// Effect returns the installed effect with the given tag.
func (n *Node) Effect(tag string) (Effect, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	e, ok := n.effectsByTag[tag]
	return e, ok
}

// EffectAs returns the effect installed under tag as T.
func EffectAs[T Effect](n *Node, tag string) (T, bool) {
	e, ok := n.Effect(tag)
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := e.(T)
	return t, ok
}

// Effects returns the installed effects in install order.
func (n *Node) Effects() []Effect {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]Effect(nil), n.effects...)
}

// Samplers returns the sampler bindings composed by the last Traverse.
func (n *Node) Samplers() []shader.Sampler {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return append([]shader.Sampler(nil), n.samplers...)
}

// SamplerHeader returns the GLSL declarations composed by the last Traverse.
func (n *Node) SamplerHeader() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.header
}

func (n *Node) recomposeState() error {
	var samplers []shader.Sampler
	for _, e := range n.Effects() {
		samplers = append(samplers, e.Samplers()...)
	}
	header, err := shader.Header(samplers)
	if err != nil {
		n.log.Error("sampler composition failed", zap.Error(err))
		return err
	}

	n.mu.Lock()
	n.samplers = samplers
	n.header = header
	n.mu.Unlock()

	n.log.Debug("terrain state recomposed", zap.Int("samplers", len(samplers)))
	return nil
}
