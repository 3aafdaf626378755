package bungie

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Activity is a provider-defined unit of gameplay a character is (or was)
// engaged in, identified by an opaque id.
type Activity struct {
	ActivityID   string    `json:"activityId"`
	ActivityType string    `json:"activityType"`
	ActivityName string    `json:"activityName"`
	StartTime    time.Time `json:"startTime"`
	Duration     int       `json:"duration,omitempty"`
	IsCompleted  bool      `json:"isCompleted"`
}

type historyResponse struct {
	Activities []struct {
		Period          time.Time `json:"period"`
		ActivityDetails struct {
			InstanceID              string `json:"instanceId"`
			ReferenceID             int64  `json:"referenceId"`
			Mode                    int    `json:"mode"`
			ActivityDurationSeconds int    `json:"activityDurationSeconds"`
		} `json:"activityDetails"`
		Values map[string]struct {
			Basic struct {
				Value float64 `json:"value"`
			} `json:"basic"`
		} `json:"values"`
	} `json:"activities"`
}

type characterResponse struct {
	Activities struct {
		Data *struct {
			CurrentActivityHash uint32 `json:"currentActivityHash"`
		} `json:"data"`
	} `json:"activities"`
}

// GetRecentActivities returns the character's last completed activities
// across all modes.
func (c *Client) GetRecentActivities(ctx context.Context, membershipType, membershipID string) ([]Activity, error) {
	body, err := c.Get(ctx, fmt.Sprintf(ActivitiesEndpoint, membershipType, membershipID))
	if err != nil {
		return nil, fmt.Errorf("failed to get activity history: %w", err)
	}

	raw, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var history historyResponse
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("failed to unmarshal activity history: %w", err)
	}

	activities := make([]Activity, 0, len(history.Activities))
	for _, entry := range history.Activities {
		activities = append(activities, Activity{
			ActivityID:   entry.ActivityDetails.InstanceID,
			ActivityType: ActivityTypeName(entry.ActivityDetails.Mode),
			ActivityName: fmt.Sprintf("%d", entry.ActivityDetails.ReferenceID),
			StartTime:    entry.Period,
			Duration:     entry.ActivityDetails.ActivityDurationSeconds,
			IsCompleted:  entry.Values["completed"].Basic.Value == 1,
		})
	}
	return activities, nil
}

// GetCurrentActivity returns the activity the character is currently in, or
// nil when the character is not in one. The activity hash doubles as the
// opaque activity id.
func (c *Client) GetCurrentActivity(ctx context.Context, membershipType, membershipID, characterID string) (*Activity, error) {
	body, err := c.Get(ctx, fmt.Sprintf(CharacterEndpoint, membershipType, membershipID, characterID))
	if err != nil {
		return nil, fmt.Errorf("failed to get character activities: %w", err)
	}

	raw, err := unwrap(body)
	if err != nil {
		return nil, err
	}

	var character characterResponse
	if err := json.Unmarshal(raw, &character); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character activities: %w", err)
	}

	if character.Activities.Data == nil || character.Activities.Data.CurrentActivityHash == 0 {
		return nil, nil
	}

	hash := character.Activities.Data.CurrentActivityHash
	return &Activity{
		ActivityID:   fmt.Sprintf("%d", hash),
		ActivityType: ActivityTypeByHash(hash),
		ActivityName: fmt.Sprintf("Activité %d", hash),
		StartTime:    time.Now().UTC(),
		IsCompleted:  false,
	}, nil
}

// activityTypeNames maps Destiny activity mode numbers to display labels.
var activityTypeNames = map[int]string{
	0:  "Aucune",
	2:  "Histoire",
	3:  "Grève",
	4:  "Raid",
	5:  "JcJ",
	6:  "Patrouille",
	7:  "JcJ Privé",
	9:  "Réservé9",
	10: "Contrôle",
	11: "Réservé11",
	12: "Choc",
	13: "Réservé13",
	15: "Zone Mortelle",
	16: "Doublons",
	17: "Réservé17",
	18: "Tous les modes JcJ",
	19: "Percée",
	20: "Réservé20",
	21: "Réservé21",
	22: "Réservé22",
	24: "Réserve de fer",
	25: "Réservé25",
	26: "Réservé26",
	27: "Réservé27",
	28: "Réservé28",
	29: "Réservé29",
	30: "Réservé30",
	31: "Suprématie",
	32: "JcJ Privé Tous les modes",
	37: "Survie",
	38: "Compte à rebours",
	39: "Traque",
	40: "Élimination",
	41: "Épreuve d'Osiris",
	42: "Épreuve d'Osiris Tous les modes",
	43: "JcJ Compétitif",
	44: "JcJ Rapide",
	45: "Chasse au trésor",
	46: "Collecte",
	47: "Survie Compétitif",
	48: "Contrôle Compétitif",
	49: "Éclipse",
	50: "Éclipse Compétitive",
	51: "Saisons Épreuve d'Osiris",
	59: "PvEvP",
	60: "Momentum",
	61: "Momentum Contrôle",
	62: "Zone de guerre freelance",
	63: "Contrôle freelance",
	64: "Éclipse freelance",
	65: "Grève de maître-d'œuvre",
	66: "Raid de maître-d'œuvre",
	67: "Donjons",
	68: "Donjons de maître-d'œuvre",
	69: "Grève de grand maître",
}

// ActivityTypeName returns the display label for an activity mode number.
// Unknown modes get a synthesized label.
func ActivityTypeName(mode int) string {
	if name, ok := activityTypeNames[mode]; ok {
		return name
	}
	return fmt.Sprintf("Mode %d", mode)
}

// activityTypesByHash covers the most common activity hashes. A full
// implementation would resolve these through the Destiny manifest.
var activityTypesByHash = map[uint32]string{
	2394244350: "Raid",
	1164760504: "Grève",
	1164760505: "Grève Héroïque",
	4110605575: "JcJ",
	1673326313: "Gambit",
}

// ActivityTypeByHash returns the activity type for a known activity hash,
// or a generic fallback label.
func ActivityTypeByHash(hash uint32) string {
	if name, ok := activityTypesByHash[hash]; ok {
		return name
	}
	return "Activité"
}
