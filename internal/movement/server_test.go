package movement

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
)

// multipartTicket builds a multipart body with a file field and an
// optional quality field
func multipartTicket(filename string, content []byte, quality string) (*bytes.Buffer, string) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	Expect(err).NotTo(HaveOccurred())
	_, err = part.Write(content)
	Expect(err).NotTo(HaveOccurred())
	if quality != "" {
		Expect(writer.WriteField("quality", quality)).To(Succeed())
	}
	Expect(writer.Close()).To(Succeed())
	return body, writer.FormDataContentType()
}

var _ = Describe("Server", func() {
	var (
		db          *mockDB
		storage     *mockStorage
		scanner     *mockScanner
		service     *Service
		server      *Server
		auth        BasicAuth
		ghttpServer *ghttp.Server
	)

	setupServer := func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		server = NewServerWithMux(service, auth, http.NewServeMux())
		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	}

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		scanner = newMockScanner()
		service = NewService(db, scanner, storage)
		auth = BasicAuth{}
		setupServer()
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("POST /api/tickets", func() {
		It("processes an upload and returns the created movement", func() {
			body, contentType := multipartTicket("ticket.jpg", []byte("image data"), "high")
			resp, err := http.Post(ghttpServer.URL()+"/api/tickets", contentType, body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusCreated))

			var movement Movement
			Expect(json.NewDecoder(resp.Body).Decode(&movement)).To(Succeed())
			Expect(movement.Vendor).To(Equal("OXXO"))
			Expect(movement.TransactionType).To(Equal("expense"))
			Expect(db.movements).To(HaveLen(1))
		})

		It("forwards the quality field", func() {
			body, contentType := multipartTicket("ticket.jpg", []byte("image data"), "low")
			resp, err := http.Post(ghttpServer.URL()+"/api/tickets", contentType, body)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(string(scanner.gotQuality)).To(Equal("low"))
		})

		It("rejects a request without a file", func() {
			body := &bytes.Buffer{}
			writer := multipart.NewWriter(body)
			Expect(writer.Close()).To(Succeed())

			resp, err := http.Post(ghttpServer.URL()+"/api/tickets", writer.FormDataContentType(), body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
		})

		It("returns a JSON error when scanning fails", func() {
			scanner.scanErr = errors.New("recognizer down")
			setupServer()

			body, contentType := multipartTicket("ticket.jpg", []byte("image data"), "")
			resp, err := http.Post(ghttpServer.URL()+"/api/tickets", contentType, body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))

			var errResp map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&errResp)).To(Succeed())
			Expect(errResp["error"]).To(ContainSubstring("recognizer down"))
		})
	})

	Describe("POST /api/tickets/extract", func() {
		It("returns the extraction without persisting", func() {
			body, contentType := multipartTicket("ticket.jpg", []byte("image data"), "")
			resp, err := http.Post(ghttpServer.URL()+"/api/tickets/extract", contentType, body)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(db.movements).To(BeEmpty())
			Expect(storage.files).To(BeEmpty())
		})
	})

	Describe("GET /api/movements", func() {
		BeforeEach(func() {
			db.movements["id1"] = &Movement{ID: "id1"}
			db.movements["id2"] = &Movement{ID: "id2"}
		})

		It("returns all movements as JSON", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))

			var movements []*Movement
			Expect(json.NewDecoder(resp.Body).Decode(&movements)).To(Succeed())
			Expect(movements).To(HaveLen(2))
		})
	})

	Describe("GET /api/movements/{id}", func() {
		BeforeEach(func() {
			db.movements["id1"] = &Movement{ID: "id1"}
		})

		It("returns the movement", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements/id1")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("returns 404 for an unknown ID", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements/missing")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})

	Describe("GET /api/movements/{id}/file", func() {
		BeforeEach(func() {
			db.movements["id1"] = &Movement{ID: "id1", Filename: "id1_ticket.jpg", ContentType: "image/jpeg"}
			storage.files["id1_ticket.jpg"] = []byte("image data")
		})

		It("returns the stored file with its content type", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements/id1/file")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("image/jpeg"))
			data, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal([]byte("image data")))
		})
	})

	Describe("DELETE /api/movements/{id}", func() {
		BeforeEach(func() {
			db.movements["id1"] = &Movement{ID: "id1", Filename: "id1_ticket.jpg"}
			storage.files["id1_ticket.jpg"] = []byte("image data")
		})

		It("deletes the movement", func() {
			req, err := http.NewRequest("DELETE", ghttpServer.URL()+"/api/movements/id1", nil)
			Expect(err).NotTo(HaveOccurred())
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(db.movements).To(BeEmpty())
		})
	})

	Describe("GET /api/movements/summary", func() {
		BeforeEach(func() {
			db.movements["a"] = movementWith("a", 1200.00, "2024-03-05", "Food")
			db.movements["b"] = movementWith("b", 450.00, "2024-03-28", "")
		})

		It("returns the monthly totals", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements/summary?month=2024-03")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var summary MonthlySummary
			Expect(json.NewDecoder(resp.Body).Decode(&summary)).To(Succeed())
			Expect(summary.Total).To(Equal(1650.00))
			Expect(summary.ByCategory).To(HaveKeyWithValue("Food", 1200.00))
			Expect(summary.ByCategory).To(HaveKeyWithValue("Other", 450.00))
		})

		It("rejects a missing month parameter", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements/summary")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("basic auth", func() {
		BeforeEach(func() {
			auth = BasicAuth{Username: "admin", Password: "secret"}
			setupServer()
		})

		It("rejects requests without credentials", func() {
			resp, err := http.Get(ghttpServer.URL() + "/api/movements")
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
			Expect(resp.Header.Get("WWW-Authenticate")).To(ContainSubstring("Basic"))
		})

		It("rejects wrong credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/movements", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte("admin:wrong")))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusUnauthorized))
		})

		It("accepts valid credentials", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/api/movements", nil)
			Expect(err).NotTo(HaveOccurred())
			req.SetBasicAuth("admin", "secret")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})
	})
})
