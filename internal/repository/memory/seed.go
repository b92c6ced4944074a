package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/spiderhome/internal/model"
)

func sortByPublished(posts []model.BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		a, b := posts[i].PublishedAt, posts[j].PublishedAt
		switch {
		case a == nil && b == nil:
			return posts[i].ID > posts[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return posts[i].ID > posts[j].ID
	})
}

// NewSeeded returns a store pre-filled with placeholder catalog data so the
// storefront renders something meaningful without a database.
func NewSeeded(ctx context.Context) (*Store, error) {
	s := New()

	products := []model.Product{
		{
			Title: "Caméra IP Intérieure 360°", Reference: "SH-CAM-360", Category: "securite",
			ShortDescription: "Caméra motorisée Full HD avec vision nocturne.",
			Description:      "Surveillez chaque pièce grâce à la rotation panoramique et à la détection de mouvement.",
			Image:            "/images/products/camera-360.jpg",
			Specifications: model.JSONList[model.Spec]{
				{Label: "Résolution", Value: "1080p"},
				{Label: "Connectivité", Value: "Wi-Fi 2.4 GHz"},
			},
			Benefits:      model.JSONList[string]{"Vision nocturne 10 m", "Audio bidirectionnel"},
			Compatibility: model.JSONList[string]{"Alexa", "Google Home"},
			IsNew:         true, Featured: true,
		},
		{
			Title: "Prise Connectée 16A", Reference: "SH-PLUG-16", Category: "energie",
			ShortDescription: "Pilotez et mesurez la consommation de vos appareils.",
			Image:            "/images/products/smart-plug.jpg",
			Specifications:   model.JSONList[model.Spec]{{Label: "Puissance max", Value: "3680 W"}},
			Benefits:         model.JSONList[string]{"Programmation horaire", "Suivi de consommation"},
			Downloads:        model.JSONList[model.Download]{{Title: "Notice", URL: "/docs/sh-plug-16.pdf"}},
			Compatibility:    model.JSONList[string]{"Alexa", "Google Home", "Zigbee 3.0"},
			Featured:         true,
		},
		{
			Title: "Détecteur de Fumée Intelligent", Reference: "SH-SMK-01", Category: "securite",
			ShortDescription: "Alerte sur smartphone en cas de fumée.",
			Image:            "/images/products/smoke-detector.jpg",
			Benefits:         model.JSONList[string]{"Certifié EN 14604", "Autonomie 10 ans"},
			RelatedProducts:  model.JSONList[uint64]{1},
		},
	}
	for i := range products {
		if err := s.products.Create(ctx, &products[i]); err != nil {
			return nil, fmt.Errorf("seed product %q: %w", products[i].Title, err)
		}
	}

	slides := []model.Slide{
		{Title: "La maison connectée, simplement", Subtitle: "Sécurité, énergie et confort réunis.",
			CTAText: "Découvrir", CTALink: "/produits", Image: "/images/slides/hero-1.jpg", SortOrder: 1, IsActive: true},
		{Title: "Nouvelle caméra 360°", Subtitle: "Rien ne vous échappe.",
			CTAText: "Voir le produit", CTALink: "/produits/camera-ip-interieure-360", Image: "/images/slides/hero-2.jpg", SortOrder: 2, IsActive: true},
		{Title: "Offre de printemps", Subtitle: "Bientôt disponible.",
			Image: "/images/slides/hero-3.jpg", SortOrder: 3, IsActive: false},
	}
	for i := range slides {
		if err := s.slides.Create(ctx, &slides[i]); err != nil {
			return nil, fmt.Errorf("seed slide %q: %w", slides[i].Title, err)
		}
	}

	posts := []model.BlogPost{
		{Title: "Bien débuter avec la domotique", Author: "Équipe SpiderHome", Status: model.StatusPublished,
			Excerpt: "Les premiers équipements à installer chez soi.",
			Content: "<p>La domotique commence souvent par une prise connectée et un détecteur de fumée.</p>"},
		{Title: "Réduire sa facture d'énergie", Author: "Équipe SpiderHome", Status: model.StatusDraft,
			Excerpt: "Programmation et suivi de consommation.",
			Content: "<p>Brouillon en cours de rédaction.</p>"},
	}
	for i := range posts {
		if err := s.blogs.Create(ctx, &posts[i]); err != nil {
			return nil, fmt.Errorf("seed post %q: %w", posts[i].Title, err)
		}
	}

	features := []model.Feature{
		{Title: "Installation sans fil", Description: "Aucun travaux nécessaires.", Icon: "wifi", SortOrder: 1, IsActive: true},
		{Title: "Application unique", Description: "Tous vos appareils dans une seule application.", Icon: "smartphone", SortOrder: 2, IsActive: true},
		{Title: "Données hébergées en France", Description: "Vos données restent privées.", Icon: "shield", SortOrder: 3, IsActive: true},
		{Title: "Support 7j/7", Description: "Une équipe disponible pour vous aider.", Icon: "headset", SortOrder: 4, IsActive: true},
	}
	for i := range features {
		if err := s.features.Create(ctx, &features[i]); err != nil {
			return nil, fmt.Errorf("seed feature %q: %w", features[i].Title, err)
		}
	}
	return s, nil
}
