package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"bizit/database"
	"bizit/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "chemin du fichier de configuration")
	months := flag.Int("months", 12, "nombre de mois de ventes du commerçant de démonstration")
	quarters := flag.Int("quarters", 8, "nombre de trimestres du jeu de référence d'exemple")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("❌ Erreur configuration:", err)
	}

	if err := database.Init(cfg.Database.Driver, cfg.Database.DSN); err != nil {
		log.Fatal("❌ Erreur connexion DB:", err)
	}
	defer database.Close()

	fmt.Printf("✅ Connexion %s établie\n", cfg.Database.Driver)

	now := time.Now()
	merchant := database.DefaultDemoMerchant()

	fmt.Println("🌱 Démarrage du seed de la base de données...")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	if err := database.SeedDatabase(merchant, *months, now); err != nil {
		log.Fatal("❌ Erreur lors du seed:", err)
	}

	fmt.Println("🌱 Jeux de référence d'exemple...")
	if err := database.WriteSampleReference(cfg.Dataset.SalesPath, cfg.Dataset.PopulationPath, *quarters, now); err != nil {
		log.Fatal("❌ Erreur jeux de référence:", err)
	}

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("✅ Seed terminé avec succès!")
	fmt.Println()
	fmt.Println("Vous pouvez maintenant démarrer l'application avec:")
	fmt.Println("  go run main.go")
	fmt.Println()
	fmt.Println("Puis calculer l'analyse du commerçant de démonstration:")
	fmt.Printf("  curl -X POST -H 'token: %s' http://localhost:%d/api/analysis/run\n", merchant.Email, cfg.Server.Port)
}
