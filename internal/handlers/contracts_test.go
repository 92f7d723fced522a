package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/powerbrief-dev/powerbrief/db"
	"github.com/powerbrief-dev/powerbrief/internal/auth"
	"github.com/powerbrief-dev/powerbrief/internal/logger"
	"github.com/powerbrief-dev/powerbrief/internal/models"
	"github.com/powerbrief-dev/powerbrief/internal/services"
	"github.com/powerbrief-dev/powerbrief/internal/storage"
	"github.com/powerbrief-dev/powerbrief/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// seedContract stores a contract whose recipients hold the given signing tokens.
func seedContract(t *testing.T, brand models.Brand, creator *models.Creator, status string, tokens map[string]string) models.Contract {
	t.Helper()

	contract := models.Contract{
		BrandID:     brand.ID,
		Title:       "Creator agreement",
		DocumentURL: "/files/agreement.pdf",
		Status:      status,
	}
	if creator != nil {
		contract.CreatorID = &creator.ID
	}

	order := 1
	for email, token := range tokens {
		recipient := models.ContractRecipient{
			Name:         email,
			Email:        email,
			SigningOrder: order,
			Status:       types.RecipientPending,
		}
		if token != "" {
			recipient.TokenHash = auth.HashSigningToken(token)
		}
		contract.Recipients = append(contract.Recipients, recipient)
		order++
	}

	require.NoError(t, db.DB.Create(&contract).Error)
	return contract
}

func multipartContract(t *testing.T, fields map[string]string, fileName string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if fileName != "" {
		part, err := w.CreateFormFile("document", fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestCreateContract(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "/files")
	require.NoError(t, err)
	setupHandlers(t, Dependencies{Store: store})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)
	creator := seedCreator(t, brand, nil)

	r := newEngine(owner)
	r.POST("/brands/:brand_id/contracts", CreateContract)
	path := "/brands/" + brand.ID + "/contracts"

	tests := []struct {
		name   string
		fields map[string]string
		file   string
		want   int
	}{
		{"missing title", map[string]string{"recipients": `[{"name":"A","email":"a@x.test"}]`}, "a.pdf", http.StatusBadRequest},
		{"no recipients", map[string]string{"title": "Deal", "recipients": `[]`}, "a.pdf", http.StatusBadRequest},
		{"duplicate recipients", map[string]string{"title": "Deal", "recipients": `[{"name":"A","email":"a@x.test"},{"name":"B","email":"A@x.test"}]`}, "a.pdf", http.StatusBadRequest},
		{"missing document", map[string]string{"title": "Deal", "recipients": `[{"name":"A","email":"a@x.test"}]`}, "", http.StatusBadRequest},
		{"created", map[string]string{"title": "Deal", "creator_id": creator.ID, "recipients": `[{"name":"A","email":"a@x.test"},{"name":"B","email":"b@x.test"}]`}, "agreement.pdf", http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, contentType := multipartContract(t, tt.fields, tt.file)
			req := httptest.NewRequest(http.MethodPost, path, body)
			req.Header.Set("Content-Type", contentType)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			require.Equal(t, tt.want, w.Code, w.Body.String())

			if tt.want != http.StatusCreated {
				return
			}

			contract := decode[models.Contract](t, w)
			assert.Equal(t, types.ESignDraft, contract.Status)
			assert.Equal(t, "agreement.pdf", contract.DocumentName)
			require.Len(t, contract.Recipients, 2)
			assert.Equal(t, 2, contract.Recipients[1].SigningOrder)

			var audit int64
			db.DB.Model(&models.ContractAuditLog{}).Where("contract_id = ? AND action = ?", contract.ID, types.AuditCreated).Count(&audit)
			assert.Equal(t, int64(1), audit)
		})
	}
}

func TestSendContract(t *testing.T) {
	mailer := &mockMailer{}
	setupHandlers(t, Dependencies{Notifier: &services.Notifier{Mailer: mailer, Log: logger.Nop()}})

	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)
	creator := seedCreator(t, brand, nil)
	contract := seedContract(t, brand, &creator, types.ESignDraft, map[string]string{"a@x.test": "", "b@x.test": ""})

	mailer.On("Send", "a@x.test", mock.Anything).Return(nil).Once()
	mailer.On("Send", "b@x.test", mock.Anything).Return(assert.AnError).Once()

	r := newEngine(owner)
	r.POST("/brands/:brand_id/contracts/:contract_id/send", SendContract)
	r.POST("/brands/:brand_id/contracts/:contract_id/void", VoidContract)
	path := "/brands/" + brand.ID + "/contracts/" + contract.ID

	w := doJSON(t, r, http.MethodPost, path+"/send", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	mailer.AssertExpectations(t)

	response := decode[map[string]any](t, w)
	assert.Contains(t, response["warning"], "could not be delivered")

	var recipients []models.ContractRecipient
	require.NoError(t, db.DB.Where("contract_id = ?", contract.ID).Find(&recipients).Error)
	require.Len(t, recipients, 2)
	for _, rec := range recipients {
		assert.NotEmpty(t, rec.TokenHash)
	}

	var stored models.Creator
	require.NoError(t, db.DB.First(&stored, "id = ?", creator.ID).Error)
	assert.Equal(t, types.ContractStatusSent, stored.ContractStatus)

	w = doJSON(t, r, http.MethodPost, path+"/void", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodPost, path+"/send", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSendContract_NoMailer(t *testing.T) {
	setupHandlers(t, Dependencies{})
	owner := seedUser(t, "Owner")
	brand := seedBrand(t, owner, nil)
	contract := seedContract(t, brand, nil, types.ESignDraft, map[string]string{"a@x.test": ""})

	r := newEngine(owner)
	r.POST("/brands/:brand_id/contracts/:contract_id/send", SendContract)

	w := doJSON(t, r, http.MethodPost, "/brands/"+brand.ID+"/contracts/"+contract.ID+"/send", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestSignContract(t *testing.T) {
	mailer := &mockMailer{}
	setupHandlers(t, Dependencies{Notifier: &services.Notifier{Mailer: mailer, Log: logger.Nop()}})

	brand := seedBrand(t, seedUser(t, "Owner"), nil)
	creator := seedCreator(t, brand, func(c *models.Creator) { c.ContractStatus = types.ContractStatusSent })
	contract := seedContract(t, brand, &creator, types.ESignSent, map[string]string{
		"a@x.test": "token-a",
		"b@x.test": "token-b",
	})

	r := newEngine(models.User{})
	r.GET("/public/contracts/:contract_id", GetPublicContract)
	r.POST("/public/contracts/:contract_id/sign", SignContract)
	path := "/public/contracts/" + contract.ID

	w := doJSON(t, r, http.MethodGet, path+"?token=wrong", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodGet, path+"?token=token-a", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode[PublicContract](t, w)
	assert.Equal(t, "a@x.test", view.Recipient.Email)
	assert.Equal(t, "Glow", view.BrandName)

	w = doJSON(t, r, http.MethodPost, path+"/sign", map[string]any{"token": "token-a", "signature": "A"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, types.ESignPartiallySigned, decode[PublicContract](t, w).Status)

	w = doJSON(t, r, http.MethodPost, path+"/sign", map[string]any{"token": "token-a", "signature": "A"})
	assert.Equal(t, http.StatusConflict, w.Code)

	mailer.On("Send", "a@x.test", mock.Anything).Return(nil).Once()
	mailer.On("Send", "b@x.test", mock.Anything).Return(nil).Once()

	w = doJSON(t, r, http.MethodPost, path+"/sign", map[string]any{"token": "token-b", "signature": "B"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	signed := decode[PublicContract](t, w)
	assert.Equal(t, types.ESignCompleted, signed.Status)
	assert.Equal(t, types.RecipientSigned, signed.Recipient.Status)
	mailer.AssertExpectations(t)

	var stored models.Contract
	require.NoError(t, db.DB.First(&stored, "id = ?", contract.ID).Error)
	assert.Equal(t, types.ESignCompleted, stored.Status)
	assert.NotNil(t, stored.CompletedAt)

	var storedCreator models.Creator
	require.NoError(t, db.DB.First(&storedCreator, "id = ?", creator.ID).Error)
	assert.Equal(t, types.ContractStatusSigned, storedCreator.ContractStatus)

	var actions []string
	db.DB.Model(&models.ContractAuditLog{}).Where("contract_id = ?", contract.ID).Pluck("action", &actions)
	assert.ElementsMatch(t, []string{types.AuditViewed, types.AuditSigned, types.AuditSigned, types.AuditCompleted}, actions)
}

func TestSignContract_DraftIsClosed(t *testing.T) {
	setupHandlers(t, Dependencies{})
	brand := seedBrand(t, seedUser(t, "Owner"), nil)
	contract := seedContract(t, brand, nil, types.ESignDraft, map[string]string{"a@x.test": "token-a"})

	r := newEngine(models.User{})
	r.POST("/public/contracts/:contract_id/sign", SignContract)

	w := doJSON(t, r, http.MethodPost, "/public/contracts/"+contract.ID+"/sign", map[string]any{"token": "token-a", "signature": "A"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
