package database

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Table and view names
const (
	TableComment       = "COMMENT"
	TableChannel       = "CHANNEL"
	ViewComments       = "COMMENTS_ON_CLAIMS"
	ViewCommentReplies = "COMMENT_REPLIES"
)

const createChannelTable = `
CREATE TABLE IF NOT EXISTS CHANNEL (
	ClaimId TEXT NOT NULL,
	Name    TEXT NOT NULL,
	CONSTRAINT CHANNEL_PK PRIMARY KEY (ClaimId)
);`

// A comment is attributed (ChannelId and Signature set) or anonymous (both null).
// Replies go with their parent.
const createCommentTable = `
CREATE TABLE IF NOT EXISTS COMMENT (
	CommentId   TEXT    NOT NULL,
	LbryClaimId TEXT    NOT NULL,
	ChannelId   TEXT             DEFAULT NULL,
	Body        TEXT    NOT NULL,
	ParentId    TEXT             DEFAULT NULL,
	Signature   TEXT             DEFAULT NULL,
	Timestamp   INTEGER NOT NULL,
	SigningTs   TEXT             DEFAULT NULL,
	IsHidden    BOOLEAN NOT NULL DEFAULT FALSE,
	CONSTRAINT COMMENT_PRIMARY_KEY PRIMARY KEY (CommentId),
	CONSTRAINT COMMENT_SIGNATURE_SK UNIQUE (Signature),
	CONSTRAINT COMMENT_CREDENTIALS_CK CHECK ((ChannelId IS NULL) = (Signature IS NULL)),
	CONSTRAINT COMMENT_CHANNEL_FK FOREIGN KEY (ChannelId) REFERENCES CHANNEL (ClaimId)
		ON DELETE NO ACTION ON UPDATE NO ACTION,
	CONSTRAINT COMMENT_PARENT_FK FOREIGN KEY (ParentId) REFERENCES COMMENT (CommentId)
		ON DELETE CASCADE ON UPDATE NO ACTION
);`

const createCommentIndexes = `
CREATE INDEX IF NOT EXISTS CLAIM_COMMENT_INDEX ON COMMENT (LbryClaimId, Timestamp);
CREATE INDEX IF NOT EXISTS CHANNEL_COMMENT_INDEX ON COMMENT (ChannelId, CommentId);
CREATE INDEX IF NOT EXISTS PARENT_COMMENT_INDEX ON COMMENT (ParentId);`

const createCommentsView = `
CREATE VIEW IF NOT EXISTS COMMENTS_ON_CLAIMS AS SELECT
	C.rowid AS seq,
	C.CommentId AS comment_id,
	C.Body AS comment,
	C.LbryClaimId AS claim_id,
	C.Timestamp AS timestamp,
	CHAN.Name AS channel_name,
	CHAN.ClaimId AS channel_id,
	('lbry://' || CHAN.Name || '#' || CHAN.ClaimId) AS channel_url,
	C.Signature AS signature,
	C.SigningTs AS signing_ts,
	C.ParentId AS parent_id,
	C.IsHidden AS is_hidden
FROM COMMENT AS C
	LEFT OUTER JOIN CHANNEL CHAN ON C.ChannelId = CHAN.ClaimId;`

const createRepliesView = `
CREATE VIEW IF NOT EXISTS COMMENT_REPLIES (Author, CommentBody, ParentAuthor, ParentCommentBody) AS
SELECT AUTHOR.Name, OG.Body, PCHAN.Name, PARENT.Body
FROM COMMENT AS OG
	JOIN COMMENT AS PARENT ON OG.ParentId = PARENT.CommentId
	JOIN CHANNEL AS PCHAN ON PARENT.ChannelId = PCHAN.ClaimId
	JOIN CHANNEL AS AUTHOR ON OG.ChannelId = AUTHOR.ClaimId;`

var schema = []string{
	createChannelTable,
	createCommentTable,
	createCommentIndexes,
	createCommentsView,
	createRepliesView,
}

// Migrate creates the tables, indexes and views if they are missing.
func Migrate(db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
