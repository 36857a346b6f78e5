package scanning

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/cefe-herrera/copilot-finance-back/internal/extract"
)

// mockRecognizer is a mock implementation of Recognizer
type mockRecognizer struct {
	text       string
	err        error
	gotImage   []byte
	gotQuality Quality
	closed     bool
}

func (m *mockRecognizer) Recognize(ctx context.Context, image []byte, quality Quality) (string, error) {
	m.gotImage = image
	m.gotQuality = quality
	if m.err != nil {
		return "", m.err
	}
	return m.text, nil
}

func (m *mockRecognizer) Close() error {
	m.closed = true
	return nil
}

var _ = Describe("Heuristic", func() {
	var (
		recognizer *mockRecognizer
		scanner    *Heuristic
		movement   *extract.Movement
		err        error
	)

	BeforeEach(func() {
		recognizer = &mockRecognizer{
			text: "Empresa: OXXO\nFecha: 15/03/2024\nTOTAL: $1,235.00",
		}
		scanner, err = NewHeuristic(recognizer)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("NewHeuristic", func() {
		It("requires a recognizer", func() {
			_, err := NewHeuristic(nil)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ScanTicket", func() {
		JustBeforeEach(func() {
			movement, err = scanner.ScanTicket([]byte("fake png bytes"), "image/png", QualityHigh)
		})

		It("runs the extraction engine over the recognized text", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(movement.Amount).To(HaveValue(Equal(1235.00)))
			Expect(movement.Vendor).To(Equal("OXXO"))
			Expect(movement.Date).To(Equal("2024-03-15"))
			Expect(movement.TransactionType).To(Equal("expense"))
		})

		It("forwards the image and quality hint to the recognizer", func() {
			Expect(recognizer.gotImage).To(Equal([]byte("fake png bytes")))
			Expect(recognizer.gotQuality).To(Equal(QualityHigh))
		})

		When("recognition fails", func() {
			BeforeEach(func() {
				recognizer.err = errors.New("worker crashed")
			})

			It("propagates the error", func() {
				Expect(err).To(HaveOccurred())
				Expect(movement).To(BeNil())
			})
		})

		When("recognition yields empty text", func() {
			BeforeEach(func() {
				recognizer.text = ""
			})

			It("still returns a well-formed movement", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(movement.Amount).To(BeNil())
				Expect(movement.Confidence.Overall).To(Equal(0))
			})
		})
	})

	Describe("Close", func() {
		It("closes the underlying recognizer", func() {
			Expect(scanner.Close()).To(Succeed())
			Expect(recognizer.closed).To(BeTrue())
		})
	})
})

var _ = Describe("HTTPRecognizer", func() {
	var (
		server     *ghttp.Server
		recognizer *HTTPRecognizer
		err        error
	)

	BeforeEach(func() {
		server = ghttp.NewServer()
		recognizer, err = NewHTTPRecognizer(server.URL())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("requires a base URL", func() {
		_, err := NewHTTPRecognizer("")
		Expect(err).To(HaveOccurred())
	})

	It("posts the image and returns the recognized text", func() {
		server.AppendHandlers(ghttp.CombineHandlers(
			ghttp.VerifyRequest("POST", "/recognize"),
			ghttp.VerifyContentType("application/json"),
			ghttp.RespondWithJSONEncoded(http.StatusOK, recognizeResponse{Text: "TOTAL: 1,500.00"}),
		))

		text, err := recognizer.Recognize(context.Background(), []byte("png"), QualityMedium)
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("TOTAL: 1,500.00"))
	})

	It("surfaces service errors with the status code", func() {
		server.AppendHandlers(ghttp.RespondWith(http.StatusBadGateway, "ocr backend down"))

		_, err := recognizer.Recognize(context.Background(), []byte("png"), QualityMedium)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("502"))
	})
})

var _ = Describe("ParseQuality", func() {
	It("accepts the three known hints", func() {
		Expect(ParseQuality("low")).To(Equal(QualityLow))
		Expect(ParseQuality("medium")).To(Equal(QualityMedium))
		Expect(ParseQuality("high")).To(Equal(QualityHigh))
	})

	It("defaults anything else to medium", func() {
		Expect(ParseQuality("")).To(Equal(QualityMedium))
		Expect(ParseQuality("ultra")).To(Equal(QualityMedium))
	})
})
