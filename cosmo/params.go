// Package cosmo validates cosmological parameter sets and maps them onto the
// unit cube the emulator was trained on.
package cosmo

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

var (
	ErrMissingParameter      = errors.New("missing parameter")
	ErrOutOfRange            = errors.New("parameter out of range")
	ErrInconsistentDuplicate = errors.New("inconsistent duplicate parameter")
	ErrJointConstraint       = errors.New("w_0 + w_a must be <= 0")
)

// Params maps parameter names to values.
type Params map[string]float64

type Bound struct {
	Lo, Hi float64
}

func (b Bound) Contains(v float64) bool {
	return v >= b.Lo && v <= b.Hi
}

// NumParams is the dimension of the normalized parameter space.
const NumParams = 8

// Vector is a normalized parameter point, ordered as Names().
type Vector [NumParams]float64

// Trained parameter order. w_b replaces w_a.
var names = [NumParams]string{"Ommh2", "Ombh2", "Omnuh2", "n_s", "h", "sigma_8", "w_0", "w_b"}

// Inputs a caller provides.
var inputs = [NumParams]string{"Ommh2", "Ombh2", "Omnuh2", "n_s", "h", "sigma_8", "w_0", "w_a"}

// Bounds are checked in this order.
var checked = [...]string{"Ommh2", "Ombh2", "Omnuh2", "n_s", "h", "sigma_8", "w_0", "w_a", "w_b"}

var bounds = map[string]Bound{
	"Ommh2":   {0.12, 0.155},
	"Ombh2":   {0.0215, 0.0235},
	"Omnuh2":  {0, 0.01},
	"n_s":     {0.85, 1.05},
	"h":       {0.55, 0.85},
	"sigma_8": {0.7, 0.9},
	"w_0":     {-1.3, -0.7},
	"w_a":     {-1.73, 1.28},
	"w_b":     {0.3, 1.3},
}

// Short names accepted in place of canonical ones.
var aliases = [...]struct{ short, name string }{
	{"w0", "w_0"},
	{"wa", "w_a"},
	{"ns", "n_s"},
	{"sigma8", "sigma_8"},
}

// Relative and absolute tolerance for agreeing alias values.
const aliasTol = 1e-12

// Names returns the parameter order of Vector.
func Names() []string {
	return append([]string(nil), names[:]...)
}

// Inputs returns the names a caller must provide.
func Inputs() []string {
	return append([]string(nil), inputs[:]...)
}

// Bounds returns a copy of the parameter bounds, including derived w_b.
func Bounds() map[string]Bound {
	out := make(map[string]Bound, len(bounds))
	for k, v := range bounds {
		out[k] = v
	}
	return out
}

// Aliases returns a copy of the short-name to canonical-name mapping.
func Aliases() map[string]string {
	out := make(map[string]string, len(aliases))
	for _, a := range aliases {
		out[a.short] = a.name
	}
	return out
}

// WB is the derived dark energy parameter (-w_0 - w_a)^(1/4).
func WB(w0, wa float64) float64 {
	return math.Pow(-w0-wa, 0.25)
}

type RangeError struct {
	Name  string
	Value float64
	Bound float64
	Upper bool // Whether the upper bound was violated.
}

func (e *RangeError) Error() string {
	if e.Upper {
		return fmt.Sprintf("parameter %s is %.4f but must be <= %.4f", e.Name, e.Value, e.Bound)
	}
	return fmt.Sprintf("parameter %s is %.4f but must be >= %.4f", e.Name, e.Value, e.Bound)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// Normalize checks p and returns its normalized vector.
func Normalize(p Params) (Vector, error) {
	var v Vector
	resolved, err := check(p)
	if err != nil {
		return v, err
	}
	for i, name := range names {
		b := bounds[name]
		v[i] = (resolved[name] - b.Lo) / (b.Hi - b.Lo)
	}
	return v, nil
}

// Validate reports whether Normalize would succeed.
func Validate(p Params) bool {
	_, err := check(p)
	return err == nil
}

// check resolves aliases, enforces the w_0/w_a constraint, derives w_b and
// checks every bound. p is not modified.
func check(p Params) (Params, error) {
	resolved := make(Params, len(p)+1)
	for k, v := range p {
		resolved[k] = v
	}
	for _, a := range aliases {
		short, name := a.short, a.name
		sv, ok := p[short]
		if !ok {
			continue
		}
		if cv, ok := p[name]; ok {
			if !scalar.EqualWithinAbsOrRel(sv, cv, aliasTol, aliasTol) {
				return nil, fmt.Errorf("%w: %s = %v but %s = %v", ErrInconsistentDuplicate, short, sv, name, cv)
			}
			continue
		}
		resolved[name] = sv
	}

	for _, name := range []string{"w_0", "w_a"} {
		if _, ok := resolved[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
	}
	w0, wa := resolved["w_0"], resolved["w_a"]
	if wa > -w0 {
		return nil, fmt.Errorf("%w: you have w_0 %.4f and w_a %.4f", ErrJointConstraint, w0, wa)
	}
	resolved["w_b"] = WB(w0, wa)

	for _, name := range checked {
		v, ok := resolved[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingParameter, name)
		}
		b := bounds[name]
		if !(v >= b.Lo) {
			return nil, &RangeError{Name: name, Value: v, Bound: b.Lo}
		}
		if !(v <= b.Hi) {
			return nil, &RangeError{Name: name, Value: v, Bound: b.Hi, Upper: true}
		}
	}
	return resolved, nil
}

// Fiducial returns the reference cosmology (Omega_m = 0.3, h = 0.7).
func Fiducial() Params {
	return Params{
		"Ommh2":   0.3 * 0.7 * 0.7,
		"Ombh2":   0.022,
		"Omnuh2":  0.006,
		"n_s":     0.96,
		"h":       0.7,
		"w_0":     -1,
		"w_a":     0,
		"sigma_8": 0.8,
	}
}

// Center returns the cosmology at the middle of every input bound.
func Center() Params {
	p := make(Params, NumParams)
	for _, name := range inputs {
		b := bounds[name]
		p[name] = 0.5 * (b.Lo + b.Hi)
	}
	return p
}
