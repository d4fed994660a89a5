package httpapi

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/agrimind/agri-advisor/internal/advisor"
	"github.com/agrimind/agri-advisor/internal/facts"
	"github.com/agrimind/agri-advisor/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. Coordinates are
// validated before any provider or model call happens.
func RegisterRoutes(app *fiber.App, adv *advisor.Service, snapshots facts.Store) {
	api := app.Group("/api")

	api.Post("/fact-bundle", func(c *fiber.Ctx) error {
		req, ok := bindBundleRequest(c)
		if !ok {
			return nil
		}

		bundle := adv.Bundle(c.UserContext(), req.location(), req.FarmerInputs)
		return c.JSON(bundle)
	})

	api.Post("/chat", func(c *fiber.Ctx) error {
		var req chatRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "invalid json body")
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, "lat and lon required")
		}

		raw, err := adv.Chat(c.UserContext(), advisor.ChatRequest{
			Location:    req.location(),
			Inputs:      req.FarmerInputs,
			UserMessage: req.UserMessage,
			Lang:        req.Lang,
		})
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		return c.JSON(fiber.Map{"gemini_raw": raw})
	})

	api.Get("/fact-bundle/latest", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(c, err.Error())
		}

		snap, err := snapshots.GetLatest(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "no snapshots for requested location",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch latest snapshot",
			})
		}

		return c.JSON(snap)
	})

	api.Get("/fact-bundle/history", func(c *fiber.Ctx) error {
		loc, err := parseLocationQuery(c)
		if err != nil {
			return badRequest(c, err.Error())
		}

		snaps, err := snapshots.GetHistory(loc)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "no snapshots for requested location",
				})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to fetch snapshot history",
			})
		}

		return c.JSON(fiber.Map{
			"location":  loc,
			"snapshots": snaps,
		})
	})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

// bundleRequest is the body of POST /api/fact-bundle. Coordinates are
// pointers so an absent value is distinguishable from 0.
type bundleRequest struct {
	Lat          *float64           `json:"lat" validate:"required"`
	Lon          *float64           `json:"lon" validate:"required"`
	FarmerInputs facts.FarmerInputs `json:"farmer_inputs"`
}

func (r bundleRequest) location() facts.Coordinates {
	return facts.Coordinates{Lat: *r.Lat, Lon: *r.Lon}
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	bundleRequest
	UserMessage string `json:"user_message"`
	Lang        string `json:"lang"`
}

func bindBundleRequest(c *fiber.Ctx) (bundleRequest, bool) {
	var req bundleRequest
	if err := c.BodyParser(&req); err != nil {
		_ = badRequest(c, "invalid json body")
		return req, false
	}
	if err := validate.Struct(req); err != nil {
		_ = badRequest(c, "lat and lon required")
		return req, false
	}
	return req, true
}

func parseLocationQuery(c *fiber.Ctx) (facts.Coordinates, error) {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return facts.Coordinates{}, errors.New("lat and lon required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return facts.Coordinates{}, errors.New("invalid lat")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return facts.Coordinates{}, errors.New("invalid lon")
	}

	return facts.Coordinates{Lat: lat, Lon: lon}, nil
}
