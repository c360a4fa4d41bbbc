package control

// PIDConfig holds the fixed tuning of a PIDController.
type PIDConfig struct {
	PGain float64
	IGain float64
	IMin  float64
	IMax  float64
}

// DefaultPIDConfig is the tuning used by the reference motor rig.
func DefaultPIDConfig() PIDConfig {
	return PIDConfig{PGain: 1, IGain: 0.8, IMin: -100, IMax: 100}
}

// PIDController is a proportional-integral controller whose integrator is
// clamped to [IMin, IMax]. The output is not clamped; callers limit it to
// what their actuator accepts.
//
// Not safe for concurrent use.
type PIDController struct {
	cfg    PIDConfig
	iState float64
}

func NewPID(cfg PIDConfig) *PIDController {
	if cfg.IMin > cfg.IMax {
		cfg.IMin, cfg.IMax = cfg.IMax, cfg.IMin
	}
	return &PIDController{cfg: cfg}
}

func (p *PIDController) Update(err float64) float64 {
	pTerm := p.cfg.PGain * err

	p.iState += err
	if p.iState > p.cfg.IMax {
		p.iState = p.cfg.IMax
	} else if p.iState < p.cfg.IMin {
		p.iState = p.cfg.IMin
	}

	return pTerm + p.cfg.IGain*p.iState
}

func (p *PIDController) Integrator() float64 {
	return p.iState
}

func (p *PIDController) Reset() {
	p.iState = 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
