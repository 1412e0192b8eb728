package analytics

import (
	"path/filepath"
	"time"

	"cardscan/internal/detect"
	"cardscan/internal/scan"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Store", func() {
	var (
		store *Store
		path  string
		clock time.Time
	)

	BeforeEach(func() {
		path = filepath.Join(GinkgoT().TempDir(), "analytics.db")
		var err error
		store, err = Open(path)
		Expect(err).NotTo(HaveOccurred())
		clock = time.UnixMilli(1_700_000_000_000)
		store.now = func() time.Time { return clock }
		DeferCleanup(func() { store.Close() })
	})

	frame := func(i uint32, progress string) scan.FrameAnalytics {
		return scan.FrameAnalytics{Index: i, Values: map[string]string{"progress": progress}}
	}

	It("records a session from start to finish", func() {
		sess, err := store.StartSession(detect.LandscapeLeft)
		Expect(err).NotTo(HaveOccurred())
		Expect(sess.ID).NotTo(BeEmpty())
		Expect(sess.Orientation).To(Equal("landscape-left"))
		Expect(sess.Started).To(Equal(clock.UnixMilli()))

		Expect(store.RecordFrame(sess.ID, frame(1, "vseg"))).To(Succeed())
		Expect(store.RecordFrame(sess.ID, frame(0, "edges"))).To(Succeed())
		Expect(store.RecordFrame(sess.ID, frame(1, "hseg"))).To(Succeed())

		clock = clock.Add(2 * time.Second)
		Expect(store.FinishSession(sess.ID, scan.Result{Complete: true, NNumbers: 16, CardType: scan.Visa})).To(Succeed())

		got, err := store.Session(sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Frames).To(Equal(uint32(2)))
		Expect(got.Complete).To(BeTrue())
		Expect(got.CardType).To(Equal("visa"))
		Expect(got.NumDigits).To(Equal(16))
		Expect(got.Finished - got.Started).To(Equal(int64(2000)))

		frames, err := store.Frames(sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(HaveLen(2))
		Expect(frames[0].Values).To(HaveKeyWithValue("progress", "edges"))
		Expect(frames[1].Index).To(Equal(uint32(1)))
		Expect(frames[1].Values).To(HaveKeyWithValue("progress", "hseg"))
	})

	It("leaves the card type empty for incomplete scans", func() {
		sess, err := store.StartSession(detect.Portrait)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.FinishSession(sess.ID, scan.Result{NNumbers: 15, CardType: scan.Amex})).To(Succeed())
		got, err := store.Session(sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Complete).To(BeFalse())
		Expect(got.CardType).To(BeEmpty())

		frames, err := store.Frames(sess.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(frames).To(BeEmpty())
	})

	It("lists sessions by start time and survives reopening", func() {
		first, err := store.StartSession(detect.Portrait)
		Expect(err).NotTo(HaveOccurred())
		clock = clock.Add(time.Minute)
		second, err := store.StartSession(detect.LandscapeRight)
		Expect(err).NotTo(HaveOccurred())
		Expect(store.Close()).To(Succeed())

		store, err = Open(path)
		Expect(err).NotTo(HaveOccurred())
		sessions, err := store.Sessions()
		Expect(err).NotTo(HaveOccurred())
		Expect(sessions).To(HaveLen(2))
		Expect(sessions[0].ID).To(Equal(first.ID))
		Expect(sessions[1].ID).To(Equal(second.ID))
	})

	It("reports unknown sessions", func() {
		_, err := store.Session("missing")
		Expect(err).To(MatchError(ErrNotFound))
		Expect(store.RecordFrame("missing", frame(0, "edges"))).To(MatchError(ErrNotFound))
		Expect(store.FinishSession("missing", scan.Result{})).To(MatchError(ErrNotFound))
		_, err = store.Frames("missing")
		Expect(err).To(MatchError(ErrNotFound))
	})
})
