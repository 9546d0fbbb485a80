package entity

// Like is a directed edge: Liker is interested in Likee. The composite primary key
// keeps at most one edge per ordered pair.
type Like struct {
	LikerID uint  `gorm:"primaryKey;autoIncrement:false" json:"liker_id"`
	Liker   *User `gorm:"foreignKey:LikerID;constraint:OnDelete:CASCADE" json:"-"`
	LikeeID uint  `gorm:"primaryKey;autoIncrement:false;index" json:"likee_id"`
	Likee   *User `gorm:"foreignKey:LikeeID;constraint:OnDelete:CASCADE" json:"-"`
}
