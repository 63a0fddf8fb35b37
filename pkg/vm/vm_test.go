package vm

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func run(t *testing.T, source string, opts ...Option) (string, error) {
	t.Helper()
	var out bytes.Buffer
	allOpts := append([]Option{WithOutput(&out)}, opts...)
	machine := New(allOpts...)
	var errs bytes.Buffer
	err := machine.Interpret(source, &errs)
	if err != nil && errs.Len() > 0 {
		return out.String(), &compileFailure{errs.String()}
	}
	return out.String(), err
}

type compileFailure struct{ msg string }

func (c *compileFailure) Error() string { return c.msg }

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestClosureCounter(t *testing.T) {
	src := `
	fun makeCounter() {
		var i = 0;
		fun count() {
			i = i + 1;
			print i;
		}
		return count;
	}
	var counter = makeCounter();
	counter();
	counter();
	counter();
	`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", out)
}

func TestClassInitAndMethod(t *testing.T) {
	src := `
	class Greeter {
		init(name) {
			this.name = name;
		}
		greet() {
			print "hi " + this.name;
		}
	}
	var g = Greeter("world");
	g.greet();
	`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "hi world\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	src := `
	class A {
		identify() {
			print "A";
		}
	}
	class B < A {
		identify() {
			super.identify();
			print "B";
		}
	}
	B().identify();
	`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "A\nB\n", out)
}

func TestRuntimeErrorStackTrace(t *testing.T) {
	src := `
	fun f() {
		return 1 + "x";
	}
	f();
	`
	_, err := run(t, src)
	require.Error(t, err)
	rt, ok := err.(*RuntimeError)
	require.True(t, ok, "expected a *RuntimeError, got %T", err)
	require.True(t, strings.Contains(rt.Error(), "[line 3] in f"))
	require.True(t, strings.Contains(rt.Error(), "[line 5] in script"))
}

func TestGCStressRunsToCompletion(t *testing.T) {
	src := `
	fun makeString(n) {
		var s = "x";
		var i = 0;
		while (i < n) {
			s = s + "x";
			i = i + 1;
		}
		return s;
	}
	var total = 0;
	var i = 0;
	while (i < 50) {
		var s = makeString(20);
		total = total + 1;
		i = i + 1;
	}
	print total;
	`
	out, err := run(t, src, WithStressGC())
	require.NoError(t, err)
	require.Equal(t, "50\n", out)
}

func TestUndefinedVariableIsRuntimeError(t *testing.T) {
	_, err := run(t, `print doesNotExist;`)
	require.Error(t, err)
	_, ok := err.(*RuntimeError)
	require.True(t, ok)
}

func TestNativeClock(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}
