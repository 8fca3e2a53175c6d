package engine_test

import (
	"context"
	"errors"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/nbodylab/internal/dynamo"
	"github.com/san-kum/nbodylab/internal/engine"
	"github.com/san-kum/nbodylab/internal/integrators"
	"github.com/san-kum/nbodylab/internal/metrics"
	"github.com/san-kum/nbodylab/internal/physics"
)

func ptr[T any](v T) *T { return &v }

var params = dynamo.Params{G: 1, Eps: 0.01, Dt: 0.001, Method: dynamo.Leapfrog}

func start(opts ...engine.Option) *engine.Engine {
	eng := engine.New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer GinkgoRecover()
		_ = eng.Run(ctx)
	}()
	DeferCleanup(func() {
		cancel()
		Eventually(eng.Done()).Should(BeClosed())
	})
	return eng
}

func send(eng *engine.Engine, cmd engine.Command) {
	GinkgoHelper()
	Expect(eng.Send(context.Background(), cmd)).To(Succeed())
}

func next(eng *engine.Engine) dynamo.Frame {
	GinkgoHelper()
	var f dynamo.Frame
	Eventually(eng.Frames()).Should(Receive(&f))
	return f
}

// latestT drains whatever frames are ready and reports the newest clock.
func latestT(eng *engine.Engine) func() float64 {
	last := -1.0
	return func() float64 {
		for {
			select {
			case f := <-eng.Frames():
				last = f.Energies.T
			default:
				return last
			}
		}
	}
}

func positionsOf(bodies []dynamo.Body) []float64 {
	out := make([]float64, 0, 2*len(bodies))
	for _, b := range bodies {
		out = append(out, b.Pos.X, b.Pos.Y)
	}
	return out
}

var _ = Describe("Engine", func() {
	var eng *engine.Engine

	Context("paused", func() {
		BeforeEach(func() {
			eng = start(engine.WithPlaying(false), engine.WithFrameBuffer(16))
		})

		It("emits a frame immediately on Initialize", func() {
			bodies := physics.FigureEight()
			send(eng, engine.Initialize{Bodies: bodies, Params: params})

			f := next(eng)
			Expect(f.Energies.T).To(Equal(0.0))
			Expect(f.Positions).To(Equal(positionsOf(bodies)))
			want := physics.Energies(bodies, 0, params.G, params.Eps)
			Expect(f.Energies).To(Equal(want))
		})

		It("does not alias the caller's bodies", func() {
			bodies := physics.FigureEight()
			send(eng, engine.Initialize{Bodies: bodies, Params: params})
			bodies[0].Pos = dynamo.V(100, 100)

			f := next(eng)
			Expect(f.Positions[0]).NotTo(Equal(100.0))
		})

		It("runs Step(count) and emits once afterwards", func() {
			send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
			next(eng)

			send(eng, engine.Step{Count: 5})
			f := next(eng)
			Expect(f.Energies.T).To(BeNumerically("~", 5*params.Dt, 1e-15))
			Consistently(eng.Frames(), 50*time.Millisecond).ShouldNot(Receive())
		})

		It("ignores Step before any bodies are loaded", func() {
			send(eng, engine.Step{Count: 3})
			Consistently(eng.Frames(), 50*time.Millisecond).ShouldNot(Receive())
		})

		It("has every earlier frame ready once Sync returns", func() {
			send(eng, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})
			send(eng, engine.Step{Count: 3})
			Expect(eng.Sync(context.Background())).To(Succeed())

			var f dynamo.Frame
			Expect(eng.Frames()).To(Receive(&f))
			Expect(f.Energies.T).To(Equal(0.0))
			Expect(eng.Frames()).To(Receive(&f))
			Expect(f.Energies.T).To(BeNumerically("~", 3*params.Dt, 1e-15))
			Expect(eng.Frames()).NotTo(Receive())
		})

		It("matches the integrators run directly", func() {
			send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
			next(eng)
			send(eng, engine.Step{Count: 20})
			f := next(eng)

			st := &dynamo.Store{Bodies: physics.FigureEight()}
			integ := integrators.NewLeapfrog()
			for i := 0; i < 20; i++ {
				integ.Step(st, params)
			}
			Expect(f.Positions).To(Equal(positionsOf(st.Bodies)))
		})

		It("keeps the frame length at twice the body count", func() {
			send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
			Expect(next(eng).Positions).To(HaveLen(6))

			send(eng, engine.ReplaceBodies{Bodies: physics.CircularBinary(1)})
			Expect(next(eng).Positions).To(HaveLen(4))

			send(eng, engine.Step{Count: 2})
			Expect(next(eng).Positions).To(HaveLen(4))
		})

		It("hands out a fresh positions slice per frame", func() {
			send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
			f1 := next(eng)
			snapshot := append([]float64(nil), f1.Positions...)

			send(eng, engine.Step{Count: 1})
			f2 := next(eng)
			Expect(&f2.Positions[0]).NotTo(BeIdenticalTo(&f1.Positions[0]))
			Expect(f1.Positions).To(Equal(snapshot))
		})

		Describe("clock reset", func() {
			BeforeEach(func() {
				send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
				next(eng)
				send(eng, engine.Step{Count: 50})
				Expect(next(eng).Energies.T).To(BeNumerically(">", 0))
			})

			It("resets t on Initialize", func() {
				send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
				Expect(next(eng).Energies.T).To(Equal(0.0))
			})

			It("resets t on ReplaceBodies and keeps parameters", func() {
				send(eng, engine.UpdateParameters{Params: dynamo.PartialParams{Dt: ptr(0.004)}})
				send(eng, engine.ReplaceBodies{Bodies: physics.CircularBinary(1)})
				Expect(next(eng).Energies.T).To(Equal(0.0))

				send(eng, engine.Step{Count: 1})
				Expect(next(eng).Energies.T).To(BeNumerically("~", 0.004, 1e-15))
			})
		})

		Describe("parameter updates", func() {
			BeforeEach(func() {
				send(eng, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
				next(eng)
			})

			It("merges only the given fields", func() {
				send(eng, engine.UpdateParameters{Params: dynamo.PartialParams{Dt: ptr(0.002)}})
				send(eng, engine.Step{Count: 3})
				f := next(eng)
				Expect(f.Energies.T).To(BeNumerically("~", 0.006, 1e-15))

				// G and eps untouched: potential still uses the original values
				st := &dynamo.Store{Bodies: physics.FigureEight()}
				p := params
				p.Dt = 0.002
				integ := integrators.NewLeapfrog()
				for i := 0; i < 3; i++ {
					integ.Step(st, p)
				}
				Expect(f.Energies.U).To(BeNumerically("~", physics.Energies(st.Bodies, st.T, p.G, p.Eps).U, 1e-12))
			})

			It("switches method on the very next step", func() {
				send(eng, engine.Step{Count: 10})
				next(eng)
				send(eng, engine.UpdateParameters{Params: dynamo.PartialParams{Method: ptr(dynamo.RK4)}})
				send(eng, engine.Step{Count: 10})
				f := next(eng)

				st := &dynamo.Store{Bodies: physics.FigureEight()}
				lf, rk := integrators.NewLeapfrog(), integrators.NewRK4()
				rkParams := params
				rkParams.Method = dynamo.RK4
				for i := 0; i < 10; i++ {
					lf.Step(st, params)
				}
				for i := 0; i < 10; i++ {
					rk.Step(st, rkParams)
				}
				Expect(f.Positions).To(Equal(positionsOf(st.Bodies)))
			})
		})

		It("gives the same store for k single steps and one k-step", func() {
			other := start(engine.WithPlaying(false), engine.WithFrameBuffer(16))
			for _, e := range []*engine.Engine{eng, other} {
				send(e, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
				next(e)
			}

			var single dynamo.Frame
			for i := 0; i < 25; i++ {
				send(eng, engine.Step{Count: 1})
				single = next(eng)
			}
			send(other, engine.Step{Count: 25})
			batched := next(other)

			Expect(single.Energies.T).To(BeNumerically("~", batched.Energies.T, 1e-12))
			for i := range single.Positions {
				Expect(single.Positions[i]).To(BeNumerically("~", batched.Positions[i], 1e-12))
			}
		})
	})

	Context("playing", func() {
		BeforeEach(func() {
			eng = start(engine.WithPlaying(true), engine.WithFrameBuffer(1))
		})

		It("ticks on its own once bodies are loaded", func() {
			send(eng, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})
			Eventually(latestT(eng)).Should(BeNumerically(">", 10*params.Dt))
		})

		It("stops ticking when paused", func() {
			send(eng, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})
			next(eng)
			send(eng, engine.SetPlaying{Playing: false})

			time.Sleep(20 * time.Millisecond)
			Eventually(eng.Frames()).ShouldNot(Receive())
			Consistently(eng.Frames(), 50*time.Millisecond).ShouldNot(Receive())

			send(eng, engine.SetPlaying{Playing: true})
			Eventually(eng.Frames()).Should(Receive())
		})

		It("adds extra Step batches on top of the heartbeat", func() {
			send(eng, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})
			next(eng)
			for i := 0; i < 5; i++ {
				send(eng, engine.Step{Count: 9})
			}
			Eventually(latestT(eng)).Should(BeNumerically(">=", 45*params.Dt))
		})
	})

	Context("default options", func() {
		It("keeps every command frame for a late reader", func() {
			e := start(engine.WithPlaying(false))
			send(e, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
			send(e, engine.Step{Count: 5})
			send(e, engine.ReplaceBodies{Bodies: physics.CircularBinary(1)})
			send(e, engine.Step{Count: 2})
			Expect(e.Sync(context.Background())).To(Succeed())

			var ts []float64
			for i := 0; i < 4; i++ {
				ts = append(ts, next(e).Energies.T)
			}
			Expect(ts[0]).To(Equal(0.0))
			Expect(ts[1]).To(BeNumerically("~", 5*params.Dt, 1e-15))
			Expect(ts[2]).To(Equal(0.0))
			Expect(ts[3]).To(BeNumerically("~", 2*params.Dt, 1e-15))
			Consistently(e.Frames(), 50*time.Millisecond).ShouldNot(Receive())
		})

		It("delivers the reset frame while the heartbeat runs", func() {
			e := start(engine.WithFrameBuffer(1))
			send(e, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})
			Expect(next(e).Energies.T).To(Equal(0.0))

			// let heartbeat frames pile up unread
			time.Sleep(20 * time.Millisecond)
			send(e, engine.ReplaceBodies{Bodies: physics.FigureEight()})

			Eventually(func() bool {
				for {
					select {
					case f := <-e.Frames():
						if f.Energies.T == 0 {
							return true
						}
					default:
						return false
					}
				}
			}).Should(BeTrue())
		})

		It("merges unread heartbeat frames", func() {
			reg := prometheus.NewRegistry()
			c, err := metrics.NewEngineCollector(reg)
			Expect(err).NotTo(HaveOccurred())
			e := start(engine.WithFrameBuffer(1), engine.WithMetrics(c))
			send(e, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})

			Eventually(func() float64 {
				return testutil.ToFloat64(c.FramesDropped)
			}).Should(BeNumerically(">", 0))
		})
	})

	Describe("boundary validation", func() {
		BeforeEach(func() {
			eng = start(engine.WithPlaying(false))
		})

		DescribeTable("rejects invalid commands",
			func(cmd engine.Command, want error) {
				err := eng.Send(context.Background(), cmd)
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("zero mass", engine.Initialize{Bodies: []dynamo.Body{{Mass: 0}}, Params: params}, dynamo.ErrInvalidBody),
			Entry("negative dt", engine.Initialize{Bodies: physics.FigureEight(), Params: dynamo.Params{G: 1, Dt: -1}}, dynamo.ErrInvalidParams),
			Entry("NaN position", engine.ReplaceBodies{Bodies: []dynamo.Body{{Mass: 1, Pos: dynamo.V(math.NaN(), 0)}}}, dynamo.ErrInvalidBody),
			Entry("negative eps patch", engine.UpdateParameters{Params: dynamo.PartialParams{Eps: ptr(-0.1)}}, dynamo.ErrInvalidParams),
			Entry("zero G patch", engine.UpdateParameters{Params: dynamo.PartialParams{G: ptr(0.0)}}, dynamo.ErrInvalidParams),
			Entry("unknown method patch", engine.UpdateParameters{Params: dynamo.PartialParams{Method: ptr(dynamo.Method(5))}}, dynamo.ErrUnknownMethod),
			Entry("negative step count", engine.Step{Count: -2}, dynamo.ErrInvalidStepCount),
		)

		It("rejects a nil command", func() {
			Expect(eng.Send(context.Background(), nil)).To(MatchError(dynamo.ErrUnknownCommand))
		})

		It("wraps rejections in a CommandError", func() {
			err := eng.Send(context.Background(), engine.Step{Count: -1})
			var cerr *dynamo.CommandError
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Command).To(Equal("step"))
		})
	})

	Describe("lifecycle", func() {
		It("refuses Send after Run returns and closes Frames", func() {
			e := engine.New()
			ctx, cancel := context.WithCancel(context.Background())
			errc := make(chan error, 1)
			go func() { errc <- e.Run(ctx) }()
			cancel()

			Eventually(errc).Should(Receive(MatchError(context.Canceled)))
			Expect(e.Send(context.Background(), engine.SetPlaying{Playing: true})).To(MatchError(dynamo.ErrEngineStopped))
			Expect(e.Sync(context.Background())).To(MatchError(dynamo.ErrEngineStopped))
			Eventually(e.Frames()).Should(BeClosed())
		})

		It("refuses a second Run", func() {
			e := start(engine.WithPlaying(false))
			send(e, engine.Initialize{Bodies: physics.CircularBinary(1), Params: params})
			next(e)
			Expect(e.Run(context.Background())).To(MatchError(ContainSubstring("already running")))
		})
	})

	Describe("metrics", func() {
		It("counts steps, commands and frames", func() {
			reg := prometheus.NewRegistry()
			c, err := metrics.NewEngineCollector(reg)
			Expect(err).NotTo(HaveOccurred())
			e := start(engine.WithPlaying(false), engine.WithFrameBuffer(8), engine.WithMetrics(c))

			send(e, engine.Initialize{Bodies: physics.FigureEight(), Params: params})
			next(e)
			send(e, engine.Step{Count: 3})
			next(e)

			Expect(testutil.ToFloat64(c.StepsTotal.WithLabelValues("leapfrog"))).To(Equal(3.0))
			Expect(testutil.ToFloat64(c.FramesEmitted)).To(Equal(2.0))
			Expect(testutil.ToFloat64(c.CommandsTotal.WithLabelValues("step"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(c.Bodies)).To(Equal(3.0))
		})
	})
})
