package connector

import (
	"strings"

	"github.com/semilink/semilink/pkg/semilinkgo/types"
)

// AnonymousUser is the profile shown while nobody is signed in.
func AnonymousUser() *types.Profile {
	return &types.Profile{
		ID:                 "u1",
		Name:               "Alex Silicon",
		Headline:           "Senior Analog Design Engineer at WaferScale Inc. | 5nm Node Expert",
		AvatarURL:          "https://picsum.photos/150/150?random=1",
		Connections:        1543,
		Location:           "San Jose, California",
		About:              "Passionate Analog Design Engineer with over 10 years of experience in high-speed SerDes and mixed-signal circuit design.\n\nCurrently leading the 5nm IP development team at WaferScale.",
		BackgroundImageURL: "https://picsum.photos/800/200?random=99",
		Experience: []types.Experience{
			{
				ID:          "e1",
				Title:       "Senior Analog Design Engineer",
				Company:     "WaferScale Inc.",
				StartDate:   "Jan 2019",
				EndDate:     types.ExperiencePresent,
				Description: "Leading the development of high-speed SerDes IP for 5nm and 3nm process nodes.",
				LogoURL:     "https://logo.clearbit.com/intel.com",
			},
			{
				ID:          "e2",
				Title:       "Analog Design Engineer",
				Company:     "NanoChip Solutions",
				StartDate:   "Jun 2014",
				EndDate:     "Dec 2018",
				Description: "Designed PLLs and DLLs for automotive microcontrollers.",
				LogoURL:     "https://logo.clearbit.com/amd.com",
			},
		},
	}
}

var seedUsers = []types.Profile{
	{
		ID:          "u2",
		Name:        "Sarah Chen",
		Headline:    "Process Integration Lead at NanoFoundry",
		AvatarURL:   "https://picsum.photos/150/150?random=2",
		Connections: 890,
		Location:    "Hsinchu, Taiwan",
		About:       "Expert in FinFET process integration and yield enhancement.",
		Experience:  []types.Experience{},
	},
	{
		ID:          "u3",
		Name:        "David Miller",
		Headline:    "Field Applications Engineer at FPGA Systems",
		AvatarURL:   "https://picsum.photos/150/150?random=3",
		Connections: 2100,
		Location:    "Austin, Texas",
		About:       "Helping customers bridge the gap between hardware and software with advanced FPGA solutions.",
		Experience:  []types.Experience{},
	},
	{
		ID:          "u4",
		Name:        "Dr. Emily Zhang",
		Headline:    "Research Scientist | Material Science",
		AvatarURL:   "https://picsum.photos/150/150?random=4",
		Connections: 560,
		Location:    "Cambridge, MA",
		About:       "PhD in Material Science focusing on wide bandgap semiconductors.",
		Experience:  []types.Experience{},
	},
}

// mockLogins maps demo addresses to seeded users for the offline sign-in.
var mockLogins = map[string]string{
	"sarah@semilink.com": "u2",
	"david@semilink.com": "u3",
	"emily@semilink.com": "u4",
}

func seedUser(id string) *types.Profile {
	for _, user := range seedUsers {
		if user.ID == id {
			return user.Clone()
		}
	}
	return nil
}

func mockLoginUser(email string) *types.Profile {
	if id, ok := mockLogins[strings.ToLower(strings.TrimSpace(email))]; ok {
		if user := seedUser(id); user != nil {
			return user
		}
	}
	return AnonymousUser()
}

func seedPosts() []types.Post {
	return []types.Post{
		{
			ID:        "p1",
			Author:    *seedUser("u2"),
			Content:   "Just successfully qualified our new EUV lithography process for the 3nm node! Yield rates are looking promising.",
			ImageURL:  "https://picsum.photos/600/300?random=10",
			Likes:     423,
			Comments:  28,
			Timestamp: "2h",
			Tags:      []string{"EUV", "3nm", "Yield"},
		},
		{
			ID:        "p2",
			Author:    *seedUser("u3"),
			Content:   "The shift to chiplets is undeniable. Is standard monolithic design officially dead for high-performance computing?",
			Likes:     891,
			Comments:  156,
			Timestamp: "5h",
			Tags:      []string{"Chiplets", "HPC", "Packaging"},
		},
		{
			ID:        "p3",
			Author:    *seedUser("u4"),
			Content:   "Excited to share our latest paper on Gallium Nitride (GaN) power efficiency.",
			Likes:     1205,
			Comments:  45,
			Timestamp: "1d",
			Tags:      []string{"GaN", "PowerElectronics", "EV"},
		},
	}
}

func seedConversations() []types.Conversation {
	return []types.Conversation{
		{ID: "c1", Contact: *seedUser("u2"), Messages: []types.Message{}, UnreadCount: 0, IsOnline: true},
		{ID: "c2", Contact: *seedUser("u3"), Messages: []types.Message{}, UnreadCount: 0},
	}
}

func seedInvitations() []types.Invitation {
	return []types.Invitation{
		{UserID: "u4", From: *seedUser("u4"), Note: "Would love to connect about GaN reliability work."},
	}
}

func seedNotifications() []types.Notification {
	return []types.Notification{
		{
			ID:            "n1",
			Type:          types.NotificationLike,
			Actor:         types.NotificationActor{Name: "Sarah Chen", AvatarURL: "https://picsum.photos/150/150?random=2", Type: "user"},
			Content:       "liked your post",
			TargetContext: "about 5nm process node challenges",
			Timestamp:     "2h",
		},
		{
			ID:        "n2",
			Type:      types.NotificationView,
			Actor:     types.NotificationActor{Name: "Dr. James Wilson", AvatarURL: "https://picsum.photos/150/150?random=42", Type: "user"},
			Content:   "viewed your profile",
			Timestamp: "4h",
		},
		{
			ID:            "n3",
			Type:          types.NotificationJob,
			Actor:         types.NotificationActor{Name: "Nvidia", AvatarURL: "https://logo.clearbit.com/nvidia.com", Type: "company"},
			Content:       "posted a new job:",
			TargetContext: "Senior Deep Learning Architect",
			Timestamp:     "1d",
			IsRead:        true,
		},
	}
}
